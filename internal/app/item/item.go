/*
Package item models lost-and-found listings: the stored item, its GeoJSON location and
the validation of an upload request.
*/
package item

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"lostfound/internal/pkg/errs"
)

// Status values of an item.
const (
	StatusNotClaimed = "not claimed"
	StatusClaimed    = "claimed"
)

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewGeoPoint builds a point from latitude and longitude.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Item is a reported lost or found object.
type Item struct {
	ID        string   `json:"_id"`
	PlaceDesc string   `json:"placeDesc"`
	ItemDesc  string   `json:"itemDesc"`
	ImageURL  string   `json:"imageUrl"`
	Contact   string   `json:"contact"`
	Location  GeoPoint `json:"location"`

	// Timestamp is the upload time in UTC.
	Timestamp time.Time `json:"timestamp"`

	Status     string `json:"status"`
	UploadedBy string `json:"uploadedBy"`
	Username   string `json:"username"`

	// ImageKey identifies the image at the media host for deletion.
	ImageKey string `json:"-"`

	// Distance is set by radius searches only (metres).
	Distance *float64 `json:"distance,omitempty"`
}

// GeoInput is the client's {lat, lng} object. Pointers distinguish absent from zero.
type GeoInput struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// UploadInput is the body of POST /api/upload.
type UploadInput struct {
	Image     string `json:"image"`
	PlaceDesc string `json:"placeDesc"`
	ItemDesc  string `json:"itemDesc"`
	Contact   string `json:"contact"`

	// GeoLocation is decoded in Validate so that a malformed location is reported
	// as an invalid location rather than as a malformed request body.
	GeoLocation json.RawMessage `json:"geoLocation"`
}

// Draft is a validated upload, ready for the image to be sent to the media host.
type Draft struct {
	Image     Image
	PlaceDesc string
	ItemDesc  string
	Contact   string
	Location  GeoPoint
}

// Validate checks an upload in the order clients expect: all missing fields are
// reported together first, then the location, then the image.
func (in UploadInput) Validate() (*Draft, *errs.CustomError) {
	var missing []string
	if strings.TrimSpace(in.Image) == "" {
		missing = append(missing, "image")
	}
	if strings.TrimSpace(in.PlaceDesc) == "" {
		missing = append(missing, "placeDesc")
	}
	if strings.TrimSpace(in.ItemDesc) == "" {
		missing = append(missing, "itemDesc")
	}
	if strings.TrimSpace(in.Contact) == "" {
		missing = append(missing, "contact")
	}
	if geoAbsent(in.GeoLocation) {
		missing = append(missing, "geoLocation")
	}
	if len(missing) > 0 {
		return nil, errs.NewError(errs.ErrMissingFields, strings.Join(missing, ", "))
	}

	loc, ok := parseGeoInput(in.GeoLocation)
	if !ok {
		return nil, errs.NewError(errs.ErrInvalidLocation)
	}

	img, customErr := ParseDataURL(in.Image)
	if customErr != nil {
		return nil, customErr
	}

	return &Draft{
		Image:     img,
		PlaceDesc: strings.TrimSpace(in.PlaceDesc),
		ItemDesc:  strings.TrimSpace(in.ItemDesc),
		Contact:   strings.TrimSpace(in.Contact),
		Location:  loc,
	}, nil
}

// geoAbsent treats an omitted, null, empty-string, false or empty-object location as missing.
func geoAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", `""`, "false":
		return true
	}
	if raw[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err == nil && len(fields) == 0 {
			return true
		}
	}
	return false
}

func parseGeoInput(raw json.RawMessage) (GeoPoint, bool) {
	var g GeoInput
	if err := json.Unmarshal(raw, &g); err != nil {
		return GeoPoint{}, false
	}
	return g.point()
}

func (g *GeoInput) point() (GeoPoint, bool) {
	if g == nil || g.Lat == nil || g.Lng == nil {
		return GeoPoint{}, false
	}
	if !ValidLatLng(*g.Lat, *g.Lng) {
		return GeoPoint{}, false
	}
	return NewGeoPoint(*g.Lat, *g.Lng), true
}

// ValidLatLng reports whether lat is in [-90, 90] and lng in [-180, 180].
func ValidLatLng(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Repository persists items. Operations scoped to an owner report items that exist but
// belong to someone else as store.ErrNotFound.
type Repository interface {
	// CreateItem stores it and assigns its ID.
	CreateItem(ctx context.Context, it *Item) error

	// ListItems returns every item, newest first.
	ListItems(ctx context.Context) ([]Item, error)

	// ItemsNear returns the items inside area, nearest first, with Distance set.
	ItemsNear(ctx context.Context, area Area) ([]Item, error)

	// ItemsByUploader returns the items uploaded by userID, newest first.
	ItemsByUploader(ctx context.Context, userID string) ([]Item, error)

	SetItemStatus(ctx context.Context, id, ownerID, status string) error

	// DeleteItem removes the item and returns it so its image can be cleaned up.
	DeleteItem(ctx context.Context, id, ownerID string) (*Item, error)
}
