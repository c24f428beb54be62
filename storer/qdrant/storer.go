package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/w-h-a/consult/storer"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// dimensionError is how Qdrant words a rejected vector length.
const dimensionError = "vector dimension error"

type qdrantStorer struct {
	options     storer.Options
	client      *http.Client
	collections sync.Map
}

func (s *qdrantStorer) ListCollections(ctx context.Context) ([]string, error) {
	var rsp qdrantEnvelope[qdrantCollectionList]

	if err := s.do(ctx, http.MethodGet, "/collections", nil, &rsp); err != nil {
		return nil, err
	}

	if !rsp.Status.ok() {
		return nil, statusError(rsp.Status)
	}

	names := make([]string, 0, len(rsp.Result.Collections))
	for _, c := range rsp.Result.Collections {
		names = append(names, c.Name)
	}

	return names, nil
}

func (s *qdrantStorer) CreateCollection(ctx context.Context, c storer.Collection) error {
	if len(c.Name) == 0 || c.Dimension < 1 {
		return fmt.Errorf("invalid collection %q with dimension %d", c.Name, c.Dimension)
	}

	distance := c.Distance
	if len(distance) == 0 {
		distance = storer.Cosine
	}

	if !distance.Valid() {
		return fmt.Errorf("unsupported distance %q", distance)
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     c.Dimension,
			"distance": string(distance),
		},
	}

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodPut, collectionPath(c.Name), req, &rsp); err != nil {
		return err
	}

	if !rsp.Status.ok() {
		return statusError(rsp.Status)
	}

	s.collections.Store(c.Name, storer.Collection{Name: c.Name, Dimension: c.Dimension, Distance: distance})

	return nil
}

func (s *qdrantStorer) Upsert(ctx context.Context, collection string, points []storer.Point, wait bool) error {
	if len(points) == 0 {
		return nil
	}

	if c, ok := s.collection(ctx, collection); ok {
		for _, p := range points {
			if len(p.Vector) != c.Dimension {
				return fmt.Errorf("%w: got %d, collection %q expects %d", storer.ErrDimensionMismatch, len(p.Vector), collection, c.Dimension)
			}
		}
	}

	body := make([]qdrantPoint, 0, len(points))
	for _, p := range points {
		payload := p.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		body = append(body, qdrantPoint{Id: p.Id, Vector: p.Vector, Payload: payload})
	}

	req := map[string]any{
		"points": body,
	}

	path := collectionPath(collection) + "/points"
	if wait {
		path += "?wait=true"
	}

	var rsp qdrantEnvelope[json.RawMessage]

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !rsp.Status.ok() {
		return statusError(rsp.Status)
	}

	return nil
}

func (s *qdrantStorer) Search(ctx context.Context, collection string, vector []float32, limit int) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	c, known := s.collection(ctx, collection)
	if known && len(vector) != c.Dimension {
		return nil, fmt.Errorf("%w: got %d, collection %q expects %d", storer.ErrDimensionMismatch, len(vector), collection, c.Dimension)
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var rsp qdrantEnvelope[[]qdrantPointResult]

	if err := s.do(ctx, http.MethodPost, collectionPath(collection)+"/points/search", req, &rsp); err != nil {
		return nil, err
	}

	if !rsp.Status.ok() {
		return nil, statusError(rsp.Status)
	}

	// unknown metrics are treated as Cosine
	negate := known && c.Distance == storer.Euclid

	results := make([]storer.Record, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		score := point.Score
		if negate {
			score = -score
		}

		payload := point.Payload
		if payload == nil {
			payload = map[string]any{}
		}

		results = append(results, storer.Record{
			Id:      string(point.Id),
			Score:   score,
			Payload: payload,
		})
	}

	return results, nil
}

func (s *qdrantStorer) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// collection reports the size and metric of a collection, looked up once and
// cached. ok is false when Qdrant could not describe it.
func (s *qdrantStorer) collection(ctx context.Context, name string) (storer.Collection, bool) {
	if c, ok := s.collections.Load(name); ok {
		return c.(storer.Collection), true
	}

	var rsp qdrantEnvelope[qdrantCollectionInfo]

	if err := s.do(ctx, http.MethodGet, collectionPath(name), nil, &rsp); err != nil || !rsp.Status.ok() {
		return storer.Collection{}, false
	}

	vectors := rsp.Result.Config.Params.Vectors
	if vectors.Size < 1 {
		return storer.Collection{}, false
	}

	d := storer.Distance(vectors.Distance)
	if !d.Valid() {
		d = storer.Cosine
	}

	c := storer.Collection{Name: name, Dimension: vectors.Size, Distance: d}

	s.collections.Store(name, c)

	return c, true
}

func (s *qdrantStorer) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(payload)), dimensionError) {
		return fmt.Errorf("%w: qdrant http %d: %s", storer.ErrDimensionMismatch, response.StatusCode, string(payload))
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}

	return nil
}

func collectionPath(name string) string {
	return "/collections/" + url.PathEscape(name)
}

func statusError(status qdrantStatus) error {
	if len(status.Error) > 0 {
		return errors.New(status.Error)
	}
	return fmt.Errorf("qdrant status %q", status.State)
}

func NewStorer(opts ...storer.Option) (storer.Storer, error) {
	options := storer.NewOptions(opts...)

	if len(options.Location) == 0 {
		return nil, errors.New("missing location for qdrant storer")
	}

	options.Location = strings.TrimRight(options.Location, "/")

	client := &http.Client{
		Timeout:   options.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &qdrantStorer{
		options: options,
		client:  client,
	}, nil
}
