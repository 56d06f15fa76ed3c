package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maubernardi/analisipolitiche/internal/analysis"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/exporter"
	"github.com/maubernardi/analisipolitiche/internal/loader"
	"github.com/maubernardi/analisipolitiche/internal/model"
	"github.com/maubernardi/analisipolitiche/internal/reader"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type tableJSON struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func toTableJSON(tbl *model.Table) tableJSON {
	rows := tbl.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return tableJSON{Name: tbl.Name, Columns: tbl.Columns, Rows: rows}
}

// handleAnalyze ingests an uploaded workbook and replaces the current run.
func (s *Server) handleAnalyze(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	defer file.Close()

	raw, err := reader.Parse(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	cfg := config.LoadSnapshot()
	valid, discarded := loader.Load(raw, cfg)
	eng := analysis.New(valid, cfg)

	run := &runState{
		valid:     valid,
		discarded: discarded,
		cfg:       cfg,
		tables:    make(map[string]*model.Table),
		engine:    eng,
		when:      time.Now(),
	}
	for _, tbl := range eng.Tables() {
		run.tables[tbl.Name] = tbl
		run.order = append(run.order, tbl.Name)
	}
	s.setRun(run)

	stats := loader.Summarize(valid)
	s.logger.Info("analysis run completed",
		"file", header.Filename,
		"rows", len(raw),
		"valid", len(valid),
		"discarded", len(discarded))

	c.JSON(http.StatusOK, gin.H{
		"file":            header.Filename,
		"rows":            len(raw),
		"valid":           len(valid),
		"discarded":       len(discarded),
		"beneficiaries":   stats.Beneficiaries,
		"operators":       stats.Operators,
		"total_revenue":   eng.TotalRevenue(),
		"discard_summary": loader.DiscardSummary(discarded),
		"tables":          run.order,
	})
}

func (s *Server) handleListTables(c *gin.Context) {
	run := s.currentRun()
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis run yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": run.order})
}

func (s *Server) handleTable(c *gin.Context) {
	run := s.currentRun()
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis run yet"})
		return
	}

	tbl, ok := run.tables[c.Param("name")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown table %q", c.Param("name"))})
		return
	}
	c.JSON(http.StatusOK, toTableJSON(tbl))
}

// handleExport streams the styled workbook of the last run.
func (s *Server) handleExport(c *gin.Context) {
	run := s.currentRun()
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis run yet"})
		return
	}

	data, err := exporter.Export(run.engine, run.valid, run.discarded, run.cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", config.OutputPrefix(), run.when.Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleGetConfig(c *gin.Context) {
	cfg := config.LoadSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"tariffs":         cfg.Tariffs,
		"excluded_events": cfg.ExcludedEvents,
	})
}

type configUpdate struct {
	Tariffs        map[string]float64 `json:"tariffs"`
	ExcludedEvents []string           `json:"excluded_events"`
}

// handlePutConfig replaces tariffs and excluded events. The change only
// affects subsequent runs; the stored run keeps its snapshot.
func (s *Server) handlePutConfig(c *gin.Context) {
	var update configUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if update.Tariffs != nil {
		for code, rate := range update.Tariffs {
			if rate < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("negative rate for %s", code)})
				return
			}
		}
		if err := config.SaveTariffs(update.Tariffs); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if update.ExcludedEvents != nil {
		if err := config.SaveExcludedEvents(update.ExcludedEvents); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	cfg := config.LoadSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"tariffs":         cfg.Tariffs,
		"excluded_events": cfg.ExcludedEvents,
	})
}
