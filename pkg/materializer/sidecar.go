package materializer

import (
	"encoding/json"
	"time"

	"github.com/mirrorkit/photomirror/pkg/model"
)

type sidecarTimestamp struct {
	Timestamp int64  `json:"timestamp"`
	Formatted string `json:"formatted"`
}

type sidecarGeoData struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type sidecarDoc struct {
	Title            string           `json:"title"`
	Caption          string           `json:"caption"`
	CreationTime     sidecarTimestamp `json:"creationTime"`
	ModificationTime sidecarTimestamp `json:"modificationTime"`
	GeoData          sidecarGeoData   `json:"geoData"`
}

// sidecarJSON renders the metadata/<basename>.json contents for an
// exported file. Source timestamps are microseconds; the sidecar floors
// them to whole seconds. ModificationTime defaults to CreationTime when
// the source omits it.
func sidecarJSON(exportName string, f model.File) ([]byte, error) {
	modUs := f.ModificationTimeUs
	if modUs == 0 {
		modUs = f.CreationTimeUs
	}

	doc := sidecarDoc{
		Title:            exportName,
		Caption:          f.Caption,
		CreationTime:     timestampFromMicros(f.CreationTimeUs),
		ModificationTime: timestampFromMicros(modUs),
		GeoData:          sidecarGeoData{Latitude: f.Latitude, Longitude: f.Longitude},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// timestampFromMicros floors a microsecond epoch timestamp to seconds
// and renders a locale-neutral short form alongside it. Epoch
// microseconds from the remote are always non-negative, so truncating
// integer division is equivalent to floor division here.
func timestampFromMicros(us int64) sidecarTimestamp {
	sec := us / 1_000_000
	return sidecarTimestamp{
		Timestamp: sec,
		Formatted: time.Unix(sec, 0).UTC().Format("2006-01-02 15:04:05"),
	}
}
