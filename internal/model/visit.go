package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// visitDateLayout is the only accepted date format for visit rows.
const visitDateLayout = "2006-01-02"

// Visit is one observed (point-of-interest, date) foot-traffic row.
type Visit struct {
	ID       int64    `json:"id,omitempty"`
	POI      string   `json:"poi"`
	Date     string   `json:"date"`
	Visitors int64    `json:"visitors"`
	CBG      *string  `json:"cbg"`
	DMA      *string  `json:"dma"`
	Dwell    *float64 `json:"dwell"`
}

// VisitPayload is one candidate row of an ingest batch before validation.
// Visitors is a raw JSON number/string so that a missing key can be told
// apart from zero.
type VisitPayload struct {
	POI      *string         `json:"poi"`
	Date     *string         `json:"date"`
	Visitors json.RawMessage `json:"visitors"`
	CBG      *string         `json:"cbg"`
	DMA      *string         `json:"dma"`
	Dwell    *float64        `json:"dwell"`
}

// ParseVisit validates one ingest payload and converts it to a Visit.
// The date must be a real calendar date in YYYY-MM-DD form and visitors must
// be present and integral; a missing poi defaults to "Unknown".
func ParseVisit(p VisitPayload) (Visit, error) {
	var v Visit

	if p.Date == nil || *p.Date == "" {
		return v, eris.New("missing date")
	}
	if _, err := time.Parse(visitDateLayout, *p.Date); err != nil {
		return v, eris.Errorf("invalid date %q, expected YYYY-MM-DD", *p.Date)
	}
	v.Date = *p.Date

	if len(p.Visitors) == 0 || string(p.Visitors) == "null" {
		return v, eris.New("missing visitors")
	}
	var visitors int64
	if err := json.Unmarshal(p.Visitors, &visitors); err != nil {
		// Quoted integers are accepted as well.
		var s string
		if err2 := json.Unmarshal(p.Visitors, &s); err2 != nil {
			return v, eris.Errorf("invalid visitors %s", string(p.Visitors))
		}
		n, err2 := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err2 != nil {
			return v, eris.Errorf("invalid visitors %q", s)
		}
		visitors = n
	}
	if visitors < 0 {
		return v, eris.Errorf("visitors must be non-negative, got %d", visitors)
	}
	v.Visitors = visitors

	if p.POI == nil || *p.POI == "" {
		v.POI = "Unknown"
	} else {
		v.POI = *p.POI
	}

	v.CBG = p.CBG
	v.DMA = p.DMA
	v.Dwell = p.Dwell
	return v, nil
}
