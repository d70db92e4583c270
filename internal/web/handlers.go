package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tabwire/internal/audit"
	"github.com/JonMunkholm/tabwire/internal/format"
	"github.com/JonMunkholm/tabwire/internal/logging"
)

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// formatInfo describes one registered format for the listing endpoint.
type formatInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions,omitempty"`
}

// handleListFormats returns the formats the registry can resolve.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Formats()
	infos := make([]formatInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, formatInfo{
			Name:       name,
			Extensions: s.registry.Extensions(name),
		})
	}
	writeJSON(w, map[string]any{"formats": infos})
}

// lineFailure reports one input line that could not be parsed or rendered.
type lineFailure struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// parseResponse is the JSON body for a completed parse session.
type parseResponse struct {
	SessionID       string           `json:"sessionId"`
	Format          string           `json:"format"`
	Columns         []string         `json:"columns,omitempty"`
	RejectedColumns []string         `json:"rejectedColumns,omitempty"`
	Records         []map[string]any `json:"records"`
	Lines           int              `json:"lines"`
	Skipped         int              `json:"skipped"`
	Failures        []lineFailure    `json:"failures,omitempty"`
}

// handleParse reads the request body line by line, decodes each line through
// a format session, and returns the governed keyed records.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	cfg, opts, err := sessionConfigFromQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	session, err := format.NewSession(s.registry, cfg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.Transcode.MaxBodySize)
	defer body.Close()

	scanner := bufio.NewScanner(wrapBody(body))
	scanner.Buffer(make([]byte, 64*1024), s.cfg.Transcode.MaxLineBytes)

	resp := parseResponse{
		SessionID: session.ID(),
		Format:    session.Format(),
		Records:   []map[string]any{},
	}

	cleanse := func() error {
		rejected, err := session.CleanseColumns()
		if err != nil {
			return err
		}
		resp.RejectedColumns = rejected
		resp.Columns = session.Header().Columns()
		return nil
	}

	// The first line is a header when the format needs one and columns are
	// not already known, unless the header parameter says otherwise.
	readHeader := session.NeedsHeader() && !session.Header().HasColumns()
	if opts.headerSet {
		readHeader = opts.hasHeader && session.NeedsHeader()
	}
	if !readHeader && session.Header().HasColumns() {
		if err := cleanse(); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		resp.Lines++

		if readHeader {
			readHeader = false
			if err := session.ParseHeader(line); err != nil {
				s.respondError(w, r, err)
				return
			}
			if err := cleanse(); err != nil {
				s.respondError(w, r, err)
				return
			}
			continue
		}

		fields, err := session.ParseRecord(line)
		if err != nil {
			resp.Failures = append(resp.Failures, lineFailure{
				Line:    resp.Lines,
				Message: err.Error(),
				Code:    ErrorCode(err),
			})
			continue
		}
		if fields == nil {
			resp.Skipped++
			continue
		}
		resp.Records = append(resp.Records, fields)
	}
	if err := scanner.Err(); err != nil {
		s.respondError(w, r, fmt.Errorf("read body: %w", err))
		return
	}

	if err := s.store.Record(r.Context(), audit.Entry{
		ID:              session.ID(),
		Format:          session.Format(),
		Direction:       audit.DirectionParse,
		Filename:        cfg.Filename,
		Lines:           resp.Lines,
		Records:         len(resp.Records),
		Failed:          len(resp.Failures),
		RejectedColumns: resp.RejectedColumns,
	}); err != nil {
		logger.Error("audit record failed", "error", err, "session_id", session.ID())
	}

	logger.Info("parse session complete",
		"session_id", session.ID(),
		"format", session.Format(),
		"lines", resp.Lines,
		"records", len(resp.Records),
		"failed", len(resp.Failures),
	)
	writeJSON(w, resp)
}

// renderRequest is the JSON body accepted by the render endpoint. A bare
// JSON array of records is accepted as shorthand.
type renderRequest struct {
	Columns []string         `json:"columns"`
	Records []map[string]any `json:"records"`
}

// handleRender encodes keyed records into line text in the requested format.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	cfg, _, err := sessionConfigFromQuery(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.Transcode.MaxBodySize)
	defer body.Close()

	req, err := decodeRenderRequest(body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = req.Columns
	}

	session, err := format.NewSession(s.registry, cfg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if session.Header().HasColumns() {
		if _, err := session.CleanseColumns(); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	includeHeader, _ := strconv.ParseBool(r.URL.Query().Get("include_header"))

	var out strings.Builder
	lines := 0
	if includeHeader {
		line, err := session.RenderHeader()
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if line != "" {
			writeLine(&out, line)
			lines++
		}
	}
	for i, rec := range req.Records {
		line, err := session.RenderRecord(rec)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("record %d: %w", i+1, err))
			return
		}
		writeLine(&out, line)
		lines++
	}

	if err := s.store.Record(r.Context(), audit.Entry{
		ID:        session.ID(),
		Format:    session.Format(),
		Direction: audit.DirectionRender,
		Filename:  cfg.Filename,
		Lines:     lines,
		Records:   len(req.Records),
	}); err != nil {
		logger.Error("audit record failed", "error", err, "session_id", session.ID())
	}

	logger.Info("render session complete",
		"session_id", session.ID(),
		"format", session.Format(),
		"records", len(req.Records),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Session-ID", session.ID())
	io.WriteString(w, out.String())
}

// handleAuditLog returns the most recent audit entries.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if !s.store.Enabled() {
		writeJSON(w, map[string]any{"enabled": false, "entries": []audit.Entry{}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, map[string]any{"enabled": true, "entries": entries})
}

// parseOptions carries request behavior that is not session configuration.
type parseOptions struct {
	// hasHeader marks the body's first line as a header line.
	hasHeader bool
	// headerSet records whether the header parameter was given explicitly.
	headerSet bool
}

// sessionConfigFromQuery builds the format session configuration from query
// parameters.
func sessionConfigFromQuery(r *http.Request) (format.SessionConfig, parseOptions, error) {
	q := r.URL.Query()

	var opts parseOptions
	cfg := format.SessionConfig{
		Format:   q.Get("format"),
		Filename: q.Get("filename"),
		Columns:  splitList(q.Get("columns")),
	}
	cfg.Governance.AllowedColumns = splitList(q.Get("allowed"))
	cfg.Governance.RequiredColumns = splitList(q.Get("required"))
	cfg.Governance.SkipUnknown, _ = strconv.ParseBool(q.Get("skip_unknown"))

	if sep := q.Get("separator"); sep != "" {
		b, err := singleByte("separator", sep)
		if err != nil {
			return cfg, opts, err
		}
		cfg.Delimited.Separator = b
	}
	if quote := q.Get("quote"); quote != "" {
		b, err := singleByte("quote", quote)
		if err != nil {
			return cfg, opts, err
		}
		cfg.Delimited.Quote = b
	}
	cfg.Delimited.ForceQuote, _ = strconv.ParseBool(q.Get("force_quote"))
	cfg.Delimited.Terminator = q.Get("terminator")
	cfg.Delimited.OmitTerminator, _ = strconv.ParseBool(q.Get("omit_terminator"))

	cfg.Fixed.LayoutSpec = q.Get("layout")
	cfg.Fixed.NoTruncate, _ = strconv.ParseBool(q.Get("no_truncate"))

	if v := q.Get("header"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, opts, fmt.Errorf("invalid header parameter %q", v)
		}
		opts.hasHeader = parsed
		opts.headerSet = true
	}
	return cfg, opts, nil
}

// decodeRenderRequest accepts either a renderRequest object or a bare JSON
// array of records.
func decodeRenderRequest(body io.Reader) (renderRequest, error) {
	var req renderRequest

	raw, err := io.ReadAll(wrapBody(body))
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}

	trimmed := strings.TrimLeftFunc(string(raw), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &req.Records); err != nil {
			return req, fmt.Errorf("decode records: %w", err)
		}
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// writeLine appends line to out, adding a newline when the format did not
// render its own terminator.
func writeLine(out *strings.Builder, line string) {
	out.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		out.WriteByte('\n')
	}
}

// splitList splits a comma-separated query value, dropping empty items.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// singleByte validates that a query parameter is exactly one byte, with a
// small set of escape names for characters awkward in URLs.
func singleByte(name, v string) (byte, error) {
	switch v {
	case "tab", `\t`:
		return '\t', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "space":
		return ' ', nil
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("invalid %s parameter %q: want a single byte", name, v)
	}
	return v[0], nil
}
