package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingQuery struct {
	Limit int    `query:"limit" default:"10" validate:"gte=1,lte=250"`
	Mode  string `query:"mode" default:"simple" validate:"oneof=simple advanced"`
}

func newContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	var q listingQuery
	require.Nil(t, ReadAndValidateRequest(newContext("/x"), &q))
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, "simple", q.Mode)
}

func TestReadAndValidateRequestBoundValuesWin(t *testing.T) {
	var q listingQuery
	require.Nil(t, ReadAndValidateRequest(newContext("/x?limit=50&mode=advanced"), &q))
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, "advanced", q.Mode)
}

func TestReadAndValidateRequestReportsQueryNames(t *testing.T) {
	var q listingQuery
	errs := ReadAndValidateRequest(newContext("/x?limit=500&mode=fancy"), &q)
	require.NotNil(t, errs)

	list, ok := errs.([]ValidationError)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "limit", list[0].Field)
	assert.Equal(t, "ERR_LTE", list[0].Code)
	assert.Equal(t, "mode", list[1].Field)
	assert.Equal(t, "mode must be one of: simple, advanced", list[1].Message)
}
