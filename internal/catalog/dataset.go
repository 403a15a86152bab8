package catalog

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"venue-recommender/internal/shared/validation"
)

// DecodeReport describes records dropped during a tolerant decode.
type DecodeReport struct {
	Total     int
	Malformed int
	Errors    []error
}

const maxReportedErrors = 20

// DecodeEvents reads a JSON array of event records. A record that fails to
// decode or validate is counted as malformed and skipped; only a document
// that is not a JSON array fails the whole call.
func DecodeEvents(r io.Reader) ([]EventRecord, DecodeReport, error) {
	return decodeList[EventRecord](r)
}

// DecodeClients reads a JSON array of client profiles.
func DecodeClients(r io.Reader) ([]ClientProfile, DecodeReport, error) {
	return decodeList[ClientProfile](r)
}

// DecodeVenues reads a JSON array of venue profiles.
func DecodeVenues(r io.Reader) ([]VenueProfile, DecodeReport, error) {
	return decodeList[VenueProfile](r)
}

// DecodeRequests reads a JSON array of open event requests.
func DecodeRequests(r io.Reader) ([]EventRequest, DecodeReport, error) {
	return decodeList[EventRequest](r)
}

func decodeList[T any](r io.Reader) ([]T, DecodeReport, error) {
	var report DecodeReport
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, report, fmt.Errorf("read dataset: %w", err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, report, fmt.Errorf("decode dataset: %w", err)
	}

	report.Total = len(raws)
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.add(fmt.Errorf("record %d: %w: %v", i, ErrMalformedRecord, err))
			continue
		}
		if err := validation.Struct(rec); err != nil {
			report.add(fmt.Errorf("record %d: %w: %v", i, ErrMalformedRecord, err))
			continue
		}
		out = append(out, rec)
	}
	return out, report, nil
}

func (r *DecodeReport) add(err error) {
	r.Malformed++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, err)
	}
}
