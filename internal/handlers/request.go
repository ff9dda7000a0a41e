package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/go-chi/chi/v5"
)

// principal returns the caller. Routes behind auth.RequireAuth always have one.
func principal(r *http.Request) policy.Principal {
	p, _ := policy.FromContext(r.Context())
	return p
}

// pathID parses a positive numeric route parameter, answering 400 otherwise.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 0)
	if err != nil || id == 0 {
		writeCode(w, r, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		writeCode(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or an RFC 3339 timestamp. dateOnly
// reports the former so range ends can cover the whole day.
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if t, err = time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	return t, false, err
}

// date decodes either JSON date form into a time.Time.
type date struct{ time.Time }

func (d *date) UnmarshalJSON(b []byte) error {
	t, _, err := parseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}
