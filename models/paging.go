// Package models holds the paging parts shared by list endpoints.
package models

import (
	"net/http"
	"net/url"

	"github.com/go-openapi/spec"
	"github.com/illuscio-dev/spanmarshal-go/httppart"
)

func intPart(name string, in httppart.Location, minimum float64) *httppart.PartSchema {
	return httppart.NewSchemaBuilder().
		Name(name).
		In(in).
		Type(httppart.TypeInteger).
		Format(httppart.FormatInt32).
		Minimum(minimum, false).
		MustBuild()
}

func linkPart(name string) *httppart.PartSchema {
	return httppart.NewSchemaBuilder().
		Name(name).
		In(httppart.InHeader).
		Type(httppart.TypeString).
		MustBuild()
}

// Paging parts sent as request query parameters.
var (
	OffsetParam = intPart("paging-offset", httppart.InQuery, 0)
	LimitParam  = intPart("paging-limit", httppart.InQuery, 1)
)

// Paging parts sent as response headers.
var (
	OffsetHeader      = intPart("paging-offset", httppart.InHeader, 0)
	LimitHeader       = intPart("paging-limit", httppart.InHeader, 1)
	TotalItemsHeader  = intPart("paging-total-items", httppart.InHeader, 0)
	TotalPagesHeader  = intPart("paging-total-pages", httppart.InHeader, 0)
	CurrentPageHeader = intPart("paging-current-page", httppart.InHeader, 0)
	NextHeader        = linkPart("paging-next")
	PreviousHeader    = linkPart("paging-previous")
)

// PagingParameters describes the paging query parameters for an OpenAPI operation.
func PagingParameters() []spec.Parameter {
	return []spec.Parameter{OffsetParam.ToParameter(), LimitParam.ToParameter()}
}

// PagingHeaders describes the paging headers of an OpenAPI response.
func PagingHeaders() map[string]spec.Header {
	headers := make(map[string]spec.Header)
	for _, schema := range []*httppart.PartSchema{
		OffsetHeader,
		LimitHeader,
		TotalItemsHeader,
		TotalPagesHeader,
		CurrentPageHeader,
		NextHeader,
		PreviousHeader,
	} {
		headers[schema.Name()] = schema.ToHeader()
	}
	return headers
}

// Paging parameters for request.
type PagingReq struct {
	// How far to offset the page.
	Offset int
	// Maximum item count to return.
	Limit int
}

// Returns nil for values that should not be sent.
func whenPositive(value int) interface{} {
	if value > 0 {
		return value
	}
	return nil
}

// ToParams dumps paging information to request URL params. The limit is only sent
// when it is valid.
func (pagingReq *PagingReq) ToParams(params url.Values) error {
	serializer := httppart.NewSerializer()
	if err := serializer.WriteQuery(OffsetParam, params, pagingReq.Offset); err != nil {
		return err
	}
	return serializer.WriteQuery(LimitParam, params, whenPositive(pagingReq.Limit))
}

func (pagingReq *PagingReq) toHeaders(headers http.Header) error {
	serializer := httppart.NewSerializer()
	if err := serializer.WriteHeader(OffsetHeader, headers, pagingReq.Offset); err != nil {
		return err
	}
	return serializer.WriteHeader(LimitHeader, headers, whenPositive(pagingReq.Limit))
}

// PagingReqFromParams reads paging request parameters. Absent parameters fall back to
// an offset of 0 and defaultLimit. Invalid ones fail with a SchemaValidationError.
func PagingReqFromParams(params url.Values, defaultLimit int) (*PagingReq, error) {
	parser := httppart.NewParser()
	pagingReq := &PagingReq{Limit: defaultLimit}

	if err := parser.ReadQuery(OffsetParam, params, &pagingReq.Offset); err != nil {
		return nil, err
	}
	if err := parser.ReadQuery(LimitParam, params, &pagingReq.Limit); err != nil {
		return nil, err
	}
	return pagingReq, nil
}

type PagingResp struct {
	*PagingReq
	TotalItems  int
	TotalPages  int
	CurrentPage int
	Next        string
	Previous    string
}

// ToHeaders writes the paging response headers. Only valid fields are sent.
func (pagingResp *PagingResp) ToHeaders(headers http.Header) error {
	pagingReq := pagingResp.PagingReq
	if pagingReq == nil {
		pagingReq = &PagingReq{}
	}
	if err := pagingReq.toHeaders(headers); err != nil {
		return err
	}

	currentPage := interface{}(nil)
	if pagingResp.CurrentPage > -1 {
		currentPage = pagingResp.CurrentPage
	}

	parts := []struct {
		schema *httppart.PartSchema
		value  interface{}
	}{
		{TotalItemsHeader, whenPositive(pagingResp.TotalItems)},
		{TotalPagesHeader, whenPositive(pagingResp.TotalPages)},
		{CurrentPageHeader, currentPage},
		{PreviousHeader, pagingResp.Previous},
		{NextHeader, pagingResp.Next},
	}

	serializer := httppart.NewSerializer()
	for _, part := range parts {
		if err := serializer.WriteHeader(part.schema, headers, part.value); err != nil {
			return err
		}
	}
	return nil
}

// PagingRespFromHeaders reads the paging response headers.
func PagingRespFromHeaders(headers http.Header, defaultLimit int) (*PagingResp, error) {
	parser := httppart.NewParser()
	pagingResp := &PagingResp{
		PagingReq: &PagingReq{Limit: defaultLimit},
		// These fields may not always have valid values. For this reason, we are going
		// to use -1 as a default to flag that the value was not present.
		TotalItems:  -1,
		TotalPages:  -1,
		CurrentPage: -1,
	}

	targets := []struct {
		schema *httppart.PartSchema
		target interface{}
	}{
		{OffsetHeader, &pagingResp.Offset},
		{LimitHeader, &pagingResp.Limit},
		{TotalItemsHeader, &pagingResp.TotalItems},
		{TotalPagesHeader, &pagingResp.TotalPages},
		{CurrentPageHeader, &pagingResp.CurrentPage},
		{PreviousHeader, &pagingResp.Previous},
		{NextHeader, &pagingResp.Next},
	}
	for _, part := range targets {
		if err := parser.ReadHeader(part.schema, headers, part.target); err != nil {
			return nil, err
		}
	}
	return pagingResp, nil
}
