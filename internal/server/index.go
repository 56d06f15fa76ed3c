package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// indexHTML is a minimal single-page client for manual use: upload a
// workbook, browse the tables, download the styled export.
const indexHTML = `<!DOCTYPE html>
<html lang="it">
<head>
<meta charset="utf-8">
<title>Analisi Politiche Attive</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; color: #222; }
h1 { color: #4472C4; }
table { border-collapse: collapse; margin-top: 1rem; }
th { background: #4472C4; color: white; padding: 4px 10px; }
td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
td:first-child { text-align: left; }
button, select { margin-right: .5rem; }
#error { color: #c0392b; }
</style>
</head>
<body>
<h1>Analisi Politiche Attive</h1>
<form id="upload">
  <input type="file" name="file" accept=".xlsx" required>
  <button type="submit">Analizza</button>
  <a href="/api/export" id="export" style="display:none">Scarica xlsx</a>
</form>
<p id="summary"></p>
<p id="error"></p>
<select id="tables" style="display:none"></select>
<div id="table"></div>
<script>
const form = document.getElementById('upload');
const tablesSel = document.getElementById('tables');

form.addEventListener('submit', async (e) => {
  e.preventDefault();
  document.getElementById('error').textContent = '';
  const resp = await fetch('/api/analyze', { method: 'POST', body: new FormData(form) });
  const body = await resp.json();
  if (!resp.ok) { document.getElementById('error').textContent = body.error; return; }
  document.getElementById('summary').textContent =
    body.valid + ' righe valide, ' + body.discarded + ' scartate, ricavi € ' + body.total_revenue.toFixed(2);
  tablesSel.innerHTML = body.tables.map(t => '<option>' + t + '</option>').join('');
  tablesSel.style.display = 'inline';
  document.getElementById('export').style.display = 'inline';
  loadTable();
});

tablesSel.addEventListener('change', loadTable);

async function loadTable() {
  const resp = await fetch('/api/tables/' + encodeURIComponent(tablesSel.value));
  if (!resp.ok) return;
  const tbl = await resp.json();
  let html = '<table><tr>' + tbl.columns.map(c => '<th>' + c + '</th>').join('') + '</tr>';
  for (const row of tbl.rows) {
    html += '<tr>' + row.map(v => '<td>' + (v === null ? '' : v) + '</td>').join('') + '</tr>';
  }
  document.getElementById('table').innerHTML = html + '</table>';
}
</script>
</body>
</html>`

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}
