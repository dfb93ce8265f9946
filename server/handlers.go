package server

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/spektr-org/enrollstat/engine"
	"github.com/spektr-org/enrollstat/ingest"
)

// POST /api/v1/enrollment/:view  (multipart "files")
func (s *Server) enrollment(c *gin.Context) {
	view, ok := s.resolveView(c, false)
	if !ok {
		return
	}

	filter, opts, err := parseEnrollmentQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	sources, err := s.readUploads(c, "files")
	if err != nil {
		badRequest(c, err)
		return
	}

	runOpts := s.cfg.RunOptions()
	if m := c.Query("mode"); m != "" {
		mode, err := ingest.ParseMode(m)
		if err != nil {
			badRequest(c, err)
			return
		}
		runOpts = append(runOpts, ingest.WithMode(mode))
	}

	batch, err := ingest.Run(c.Request.Context(), sources, runOpts...)
	if err != nil {
		var noData *ingest.NoDataError
		if errors.As(err, &noData) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  noData.Error(),
				"errors": noData.Errors,
			})
			return
		}
		s.log.Errorf("❌ batch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := engine.Execute(view, engine.Input{Table: batch.Table, Filter: filter}, opts...)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batchId":   batch.ID,
		"fragments": batch.Fragments,
		"errors":    batch.Errors,
		"result":    result,
	})
}

// POST /api/v1/events/:view  (multipart "file")
func (s *Server) events(c *gin.Context) {
	view, ok := s.resolveView(c, true)
	if !ok {
		return
	}

	opts, err := s.parseEventQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	sources, err := s.readUploads(c, "file")
	if err != nil {
		badRequest(c, err)
		return
	}

	loc, err := s.cfg.Location()
	if err != nil {
		badRequest(c, err)
		return
	}
	evlog, err := ingest.LoadEvents(sources[0], loc)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := engine.Execute(view, engine.Input{Events: evlog.Events}, opts...)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":      evlog.Source,
		"events":      len(evlog.Events),
		"invalidRows": evlog.InvalidRows,
		"result":      result,
	})
}

// ============================================================================
// REQUEST PARSING
// ============================================================================

// resolveView writes 404 for unknown views and 400 for a view of the
// other input family.
func (s *Server) resolveView(c *gin.Context, behavioral bool) (engine.ViewName, bool) {
	view, err := engine.ParseView(c.Param("view"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "views": engine.Views()})
		return "", false
	}
	if engine.IsBehavioral(view) != behavioral {
		kind := "an enrollment"
		if !behavioral {
			kind = "an event-log"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": string(view) + " is " + kind + " view"})
		return "", false
	}
	return view, true
}

func (s *Server) readUploads(c *gin.Context, field string) ([]ingest.Source, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes())
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.Wrap(err, "invalid multipart upload")
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, errors.Errorf("multipart field %q has no files", field)
	}

	sources := make([]ingest.Source, 0, len(headers))
	for _, fh := range headers {
		src, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func readUpload(fh *multipart.FileHeader) (ingest.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return ingest.Source{}, errors.Wrapf(err, "failed to open upload %s", fh.Filename)
	}
	defer f.Close()
	return ingest.ReadSource(fh.Filename, f)
}

func parseEnrollmentQuery(c *gin.Context) (engine.Filter, []engine.Option, error) {
	var f engine.Filter
	var opts []engine.Option

	periods, err := engine.ParsePeriods(c.QueryArray("periods")...)
	if err != nil {
		return f, nil, err
	}
	f.Periods = periods

	if f.PeriodFrom, err = queryInt(c, "from"); err != nil {
		return f, nil, err
	}
	if f.PeriodTo, err = queryInt(c, "to"); err != nil {
		return f, nil, err
	}
	f.AgeBrackets = splitList(c.QueryArray("ages"))
	f.Curricula = splitList(c.QueryArray("curricula"))
	f.CourseGroups = splitList(c.QueryArray("courses"))

	if queryBool(c, "zeroFill") {
		opts = append(opts, engine.WithZeroFill())
	}
	if queryBool(c, "keepZero") {
		opts = append(opts, engine.KeepZeroSeries())
	}
	if subset := splitList(c.QueryArray("subset")); len(subset) > 0 {
		opts = append(opts, engine.WithAgeSubset(subset...))
	}
	return f, opts, nil
}

func (s *Server) parseEventQuery(c *gin.Context) ([]engine.Option, error) {
	stages := splitList(c.QueryArray("stages"))
	if len(stages) == 0 {
		stages = s.cfg.FunnelStages
	}

	var pairs []engine.StagePair
	if raw := splitList(c.QueryArray("pairs")); len(raw) > 0 {
		for _, r := range raw {
			p, err := engine.ParsePair(r)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
	} else {
		var err error
		if pairs, err = s.cfg.Pairs(); err != nil {
			return nil, err
		}
	}

	var opts []engine.Option
	if len(stages) > 0 {
		opts = append(opts, engine.WithStages(stages...))
	}
	if len(pairs) > 0 {
		opts = append(opts, engine.WithPairs(pairs...))
	}
	return opts, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("query %s: %q is not a number", key, raw)
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
