package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the donortrack API.",
		"status":  http.StatusOK,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReady reports 503 while the database is unreachable.
func (s *Server) handleReady(c *gin.Context) {
	if s.services.Store != nil {
		if err := s.services.Store.Ping(c.Request.Context()); err != nil {
			s.logger.WarnContext(c.Request.Context(), "Readiness check failed", "error", err)
			detail(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleReconcileProgram(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	r, err := s.services.Donations.ReconcileProgram(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleGenerateReceipts(c *gin.Context) {
	year, err := QueryYear(c)
	if err != nil {
		unprocessable(c, err)
		return
	}
	receipts, err := s.services.Receipts.GenerateForYear(c.Request.Context(), year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}

func (s *Server) handleDonationsByProgram(c *gin.Context) {
	rows, err := s.services.Reports.DonationsByProgram(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleDonationsByDonor(c *gin.Context) {
	rows, err := s.services.Reports.DonationsByDonor(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleUnfulfilledPledges(c *gin.Context) {
	rows, err := s.services.Reports.UnfulfilledPledges(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handlePendingThankYouNotes(c *gin.Context) {
	rows, err := s.services.Reports.PendingThankYouNotes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
