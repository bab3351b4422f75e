package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"glyco/defs"
)

// Store is an in-memory stand-in for the mongo archive.
type Store struct {
	Readings []defs.Reading
	Alerts   []defs.Alert
	Files    map[string][]byte
}

func (s *Store) WriteReading(_ context.Context, r *defs.Reading) (*mongo.UpdateResult, error) {
	for _, existing := range s.Readings {
		if existing.Time.Equal(r.Time) {
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		}
	}
	s.Readings = append(s.Readings, *r)
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func (s *Store) ReadReadings(_ context.Context, start, end time.Time) ([]defs.Reading, error) {
	var rs []defs.Reading
	for _, r := range s.Readings {
		if !r.Time.Before(start) && !r.Time.After(end) {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })
	return rs, nil
}

func (s *Store) WriteAlert(_ context.Context, al *defs.Alert) (*mongo.UpdateResult, error) {
	s.Alerts = append(s.Alerts, *al)
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func (s *Store) ReadAlerts(_ context.Context, start, end time.Time) ([]defs.Alert, error) {
	var alerts []defs.Alert
	for _, al := range s.Alerts {
		if !al.Time.Before(start) && !al.Time.After(end) {
			alerts = append(alerts, al)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Time.Before(alerts[j].Time) })
	return alerts, nil
}

func (s *Store) SaveFile(_ context.Context, name string, r io.Reader) (string, error) {
	if s.Files == nil {
		s.Files = make(map[string][]byte)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	fid := fmt.Sprintf("%s-%d", name, len(s.Files)+1)
	s.Files[fid] = b
	return fid, nil
}

func (s *Store) ReadFile(_ context.Context, fid string) (io.Reader, error) {
	b, ok := s.Files[fid]
	if !ok {
		return nil, fmt.Errorf("no file %s", fid)
	}
	return bytes.NewReader(b), nil
}

func (s *Store) DeleteFile(_ context.Context, fid string) error {
	delete(s.Files, fid)
	return nil
}
