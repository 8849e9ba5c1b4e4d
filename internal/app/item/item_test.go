package item

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/pkg/errs"
)

func geo(raw string) json.RawMessage { return json.RawMessage(raw) }

var pngURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

func TestUploadInputValidate(t *testing.T) {
	valid := UploadInput{
		Image:       pngURL,
		PlaceDesc:   " Library 2nd floor ",
		ItemDesc:    "Blue umbrella",
		Contact:     "ana@campus.edu",
		GeoLocation: geo(`{"lat":12.97,"lng":77.59}`),
	}

	cases := []struct {
		name     string
		mutate   func(in *UploadInput)
		wantCode int
		wantMsg  string
	}{
		{name: "valid"},
		{
			name: "all missing reported together",
			mutate: func(in *UploadInput) {
				*in = UploadInput{}
			},
			wantCode: errs.ErrMissingFields,
			wantMsg:  "Missing required fields: image, placeDesc, itemDesc, contact, geoLocation",
		},
		{
			name:     "blank contact",
			mutate:   func(in *UploadInput) { in.Contact = "  " },
			wantCode: errs.ErrMissingFields,
			wantMsg:  "Missing required fields: contact",
		},
		{
			name:     "location without lng",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`{"lat":1}`) },
			wantCode: errs.ErrInvalidLocation,
		},
		{
			name:     "latitude out of range",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`{"lat":91,"lng":0}`) },
			wantCode: errs.ErrInvalidLocation,
		},
		{
			name:     "coordinates as strings",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`{"lat":"12.97","lng":"77.59"}`) },
			wantCode: errs.ErrInvalidLocation,
		},
		{
			name:     "location not an object",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`"library"`) },
			wantCode: errs.ErrInvalidLocation,
		},
		{
			name:     "location array",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`[12.97,77.59]`) },
			wantCode: errs.ErrInvalidLocation,
		},
		{
			name:     "null location is missing",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`null`) },
			wantCode: errs.ErrMissingFields,
			wantMsg:  "Missing required fields: geoLocation",
		},
		{
			name:     "empty object location is missing",
			mutate:   func(in *UploadInput) { in.GeoLocation = geo(`{}`) },
			wantCode: errs.ErrMissingFields,
			wantMsg:  "Missing required fields: geoLocation",
		},
		{
			name: "missing fields win over bad location",
			mutate: func(in *UploadInput) {
				*in = UploadInput{ItemDesc: "Keys", GeoLocation: geo(`"here"`)}
			},
			wantCode: errs.ErrMissingFields,
			wantMsg:  "Missing required fields: image, placeDesc, contact",
		},
		{
			name:     "image not a data url",
			mutate:   func(in *UploadInput) { in.Image = "https://example.com/a.png" },
			wantCode: errs.ErrInvalidImage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			if tc.mutate != nil {
				tc.mutate(&in)
			}

			draft, customErr := in.Validate()
			if tc.wantCode == 0 {
				require.Nil(t, customErr)
				assert.Equal(t, "Library 2nd floor", draft.PlaceDesc)
				assert.Equal(t, [2]float64{77.59, 12.97}, draft.Location.Coordinates)
				assert.Equal(t, "Point", draft.Location.Type)
				assert.Equal(t, "png", draft.Image.Ext)
				return
			}

			require.NotNil(t, customErr)
			assert.Equal(t, tc.wantCode, customErr.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, customErr.Message)
			}
		})
	}
}

func TestParseDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("jpegbytes!"))

	cases := []struct {
		name     string
		in       string
		wantType string
		wantExt  string
		wantCode int
	}{
		{name: "jpeg", in: "data:image/jpeg;base64," + payload, wantType: "image/jpeg", wantExt: "jpg"},
		{name: "jpg alias", in: "data:image/jpg;base64," + payload, wantType: "image/jpeg", wantExt: "jpg"},
		{name: "unpadded", in: "data:image/webp;base64," + strings.TrimRight(base64.StdEncoding.EncodeToString([]byte("ab")), "="), wantType: "image/webp", wantExt: "webp"},
		{name: "svg rejected", in: "data:image/svg+xml;base64," + payload, wantCode: errs.ErrInvalidImage},
		{name: "no base64 marker", in: "data:image/png," + payload, wantCode: errs.ErrInvalidImage},
		{name: "empty payload", in: "data:image/png;base64,", wantCode: errs.ErrInvalidImage},
		{name: "bad base64", in: "data:image/png;base64,@@@", wantCode: errs.ErrInvalidImage},
		{name: "not an image", in: "data:text/plain;base64," + payload, wantCode: errs.ErrInvalidImage},
		{name: "too large", in: "data:image/png;base64," + strings.Repeat("A", (MaxImageSize/3)*4+8), wantCode: errs.ErrInvalidImage},
		{name: "one byte over", in: "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, MaxImageSize+1)), wantCode: errs.ErrInvalidImage},
		{name: "exactly the limit", in: "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, MaxImageSize)), wantType: "image/png", wantExt: "png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, customErr := ParseDataURL(tc.in)
			if tc.wantCode != 0 {
				require.NotNil(t, customErr)
				assert.Equal(t, tc.wantCode, customErr.Code)
				return
			}
			require.Nil(t, customErr)
			assert.Equal(t, tc.wantType, img.ContentType)
			assert.Equal(t, tc.wantExt, img.Ext)
			assert.NotEmpty(t, img.Data)
		})
	}
}

func TestParseArea(t *testing.T) {
	area, ok := ParseArea(url.Values{})
	assert.True(t, ok)
	assert.Nil(t, area)

	area, ok = ParseArea(url.Values{"lat": {"10"}, "lng": {"20"}})
	require.True(t, ok)
	assert.Equal(t, DefaultSearchRadius, area.Radius)
	assert.Equal(t, 10.0, area.Center.Lat())

	for _, q := range []url.Values{
		{"lat": {"10"}},
		{"lat": {"x"}, "lng": {"1"}},
		{"lat": {"10"}, "lng": {"200"}},
		{"lat": {"10"}, "lng": {"20"}, "radius": {"-5"}},
		{"lat": {"10"}, "lng": {"20"}, "radius": {"999999"}},
	} {
		_, ok := ParseArea(q)
		assert.False(t, ok, "%v", q)
	}
}

func TestDistanceAndWithin(t *testing.T) {
	// one degree of latitude is ~111.2 km
	d := Distance(NewGeoPoint(0, 0), NewGeoPoint(1, 0))
	assert.InDelta(t, 111195, d, 100)

	now := time.Now()
	items := []Item{
		{ID: "far", Location: NewGeoPoint(0.02, 0), Timestamp: now},
		{ID: "near", Location: NewGeoPoint(0.001, 0), Timestamp: now},
		{ID: "mid", Location: NewGeoPoint(0.005, 0), Timestamp: now},
	}

	got := Within(items, Area{Center: NewGeoPoint(0, 0), Radius: 1000})
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.NotNil(t, got[0].Distance)
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Now()
	items := []Item{
		{ID: "old", Timestamp: now.Add(-time.Hour)},
		{ID: "new", Timestamp: now},
	}
	SortNewestFirst(items)
	assert.Equal(t, "new", items[0].ID)
}
