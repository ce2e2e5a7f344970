package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/smartapplicant/internal/db"
	"github.com/jonathan/smartapplicant/internal/ingestion"
	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/types"
	"github.com/jonathan/smartapplicant/internal/wizard"
)

// maxJSONBody caps JSON request bodies. Job descriptions are the largest.
const maxJSONBody = 1 << 20

// multipartOverhead allows for part headers and boundaries around the resume.
const multipartOverhead = 64 << 10

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	SessionID string          `json:"session_id"`
	Token     string          `json:"token"`
	State     wizard.Snapshot `json:"state"`
}

// ChatResponse is returned by POST /sessions/{id}/chat.
type ChatResponse struct {
	Reply types.ChatMessage `json:"reply"`
	State wizard.Snapshot   `json:"state"`
}

// controller loads the session named in the path.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*wizard.Controller, bool) {
	id := r.PathValue("id")
	c, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return c, true
}

// withSession adds the session ID to the request logger.
func withSession(r *http.Request, id string) context.Context {
	logger := logging.FromContext(r.Context()).With().Str("session_id", id).Logger()
	return logging.WithContext(r.Context(), logger)
}

// decodeJSON reads a JSON body into dst. An empty body is accepted when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return &ErrValidation{Message: "invalid request body"}
	}
	return nil
}

func (s *Server) respondState(w http.ResponseWriter, c *wizard.Controller) {
	s.jsonResponse(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.tokens.GenerateToken(c.ID())
	if err != nil {
		_ = s.sessions.Delete(r.Context(), c.ID())
		s.writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info().Str("session_id", c.ID()).Msg("session created")
	s.jsonResponse(w, http.StatusCreated, CreateSessionResponse{
		SessionID: c.ID(),
		Token:     token,
		State:     c.Snapshot(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	s.respondState(w, c)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handlePutResume accepts a multipart upload in the "resume" field. The
// part's declared type is checked before any of its content is read.
func (s *Server) handlePutResume(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, ingestion.MaxResumeBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "resume", Message: "expected multipart/form-data"})
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.writeError(w, r, &ErrValidation{Field: "resume", Message: "missing file"})
			return
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				s.writeError(w, r, err)
				return
			}
			s.writeError(w, r, &ErrValidation{Field: "resume", Message: "malformed multipart body"})
			return
		}
		if part.FormName() != "resume" {
			_ = part.Close()
			continue
		}

		name := part.FileName()
		if name == "" {
			name = "resume.pdf"
		}
		file, err := ingestion.LoadResume(name, part.Header.Get("Content-Type"), part)
		_ = part.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := c.SetResume(file); err != nil {
			s.writeError(w, r, err)
			return
		}

		logging.FromContext(r.Context()).Info().Str("session_id", c.ID()).Str("file", name).Msg("resume selected")
		s.respondState(w, c)
		return
	}
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.ClearResume(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, c)
}

// handlePutJob sets the job description from text or, when only a URL is
// given, from the fetched posting.
func (s *Server) handlePutJob(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	var req types.JobDescriptionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	text := req.JobDescription
	if strings.TrimSpace(text) == "" && req.JobURL != "" {
		ctx := withSession(r, c.ID())
		fetched, err := s.fetchJob(ctx, req.JobURL)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		text = fetched
	}

	if err := c.SetJobDescription(text); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, c)
}

func (s *Server) handleGenerateLetter(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.GenerateLetter(withSession(r, c.ID())); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, c)
}

func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	ctx := withSession(r, c.ID())
	if err := c.GenerateEmail(ctx); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.archiveApplication(ctx, c)
	s.respondState(w, c)
}

// archiveApplication records the finished letter and email. Failures are
// only logged.
func (s *Server) archiveApplication(ctx context.Context, c *wizard.Controller) {
	if s.archive == nil {
		return
	}
	st := c.State()
	app := db.NewApplication(c.ID(), st.JobDescription, st.Assessment, st.Letter, st.Email)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.archive.SaveApplication(saveCtx, app); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("failed to archive application")
	}
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := c.Back(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, c)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	var req types.ChatRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	reply, err := c.Chat(withSession(r, c.ID()), req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ChatResponse{Reply: reply, State: c.Snapshot()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	var req types.ResetRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	var err error
	if req.Full {
		err = c.FullReset()
	} else {
		err = c.ResetForNewJob()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondState(w, c)
}
