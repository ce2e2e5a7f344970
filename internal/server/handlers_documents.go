package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/rendering"
	"github.com/jonathan/smartapplicant/internal/wizard"
)

func (s *Server) handleLetterPDF(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	snap := c.Snapshot()
	if strings.TrimSpace(snap.Letter) == "" {
		s.writeError(w, r, wizard.ErrNoLetter)
		return
	}

	data, doc, err := rendering.RenderPDFBytes(snap.Letter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	company := ""
	if snap.Assessment != nil {
		company = snap.Assessment.CompanyName
	}
	filename := rendering.FileName(company)

	logging.FromContext(r.Context()).Debug().
		Str("session_id", c.ID()).
		Int("pages", len(doc.Pages)).
		Int("bytes", len(data)).
		Msg("rendered cover letter PDF")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleLetterText(w http.ResponseWriter, r *http.Request) {
	s.documentText(w, r, func(snap wizard.Snapshot) (string, error) {
		if strings.TrimSpace(snap.Letter) == "" {
			return "", wizard.ErrNoLetter
		}
		return snap.Letter, nil
	})
}

func (s *Server) handleEmailText(w http.ResponseWriter, r *http.Request) {
	s.documentText(w, r, func(snap wizard.Snapshot) (string, error) {
		if strings.TrimSpace(snap.Email) == "" {
			return "", wizard.ErrNoEmail
		}
		return snap.Email, nil
	})
}

// documentText writes one document as plain text, ready for the clipboard.
func (s *Server) documentText(w http.ResponseWriter, r *http.Request, pick func(wizard.Snapshot) (string, error)) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	text, err := pick(c.Snapshot())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// handleEvents streams a snapshot after every state change until the
// client goes away or the session ends.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	changes, unsubscribe := c.Subscribe()
	defer unsubscribe()

	// streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent(EventState, c.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-changes:
			if !ok {
				sse.WriteClosed(c.ID())
				return
			}
			if err := sse.WriteEvent(EventState, snap); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.WritePing(); err != nil {
				return
			}
		}
	}
}
