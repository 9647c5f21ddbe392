package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/filestore"
)

// DefaultReportPrefix is where reports land inside the bucket.
const DefaultReportPrefix = "dbinit/reports"

const (
	// maxReportSize bounds what Fetch will decode.
	maxReportSize = 1 << 20

	// defaultScanLimit bounds how many objects List reads under the prefix.
	defaultScanLimit = 10000
)

// StorePublisher writes each report to <prefix>/<run-id>.json in an object
// store and reads them back.
type StorePublisher struct {
	store  filestore.Store
	bucket string
	prefix string

	scanLimit int
}

// NewStorePublisher returns a publisher over store. An empty prefix uses
// DefaultReportPrefix.
func NewStorePublisher(store filestore.Store, bucket, prefix string) *StorePublisher {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultReportPrefix
	}
	return &StorePublisher{store: store, bucket: bucket, prefix: prefix, scanLimit: defaultScanLimit}
}

// Key returns the object key for runID.
func (p *StorePublisher) Key(runID string) string {
	return path.Join(p.prefix, runID+".json")
}

// Publish uploads r as indented JSON.
func (p *StorePublisher) Publish(ctx context.Context, r *Report) error {
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode report", err)
	}

	if _, err := p.store.PutObject(ctx, p.bucket, p.Key(r.RunID), bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return fmt.Errorf("publish report %s: %w", r.RunID, err)
	}
	return nil
}

// Fetch reads back the report for runID.
func (p *StorePublisher) Fetch(ctx context.Context, runID string) (*Report, error) {
	obj, err := p.store.GetObject(ctx, p.bucket, p.Key(runID))
	if err != nil {
		return nil, fmt.Errorf("fetch report %s: %w", runID, err)
	}
	defer obj.Close()

	if info := obj.Info(); info != nil && info.Size > maxReportSize {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("report %s is %d bytes, larger than %d", runID, info.Size, maxReportSize))
	}

	var r Report
	if err := json.NewDecoder(io.LimitReader(obj, maxReportSize)).Decode(&r); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("report %s is not valid JSON", runID), err)
	}
	return &r, nil
}

// List returns the published reports, newest first. limit <= 0 lists all.
// At most scanLimit objects under the prefix are considered.
func (p *StorePublisher) List(ctx context.Context, limit int) ([]filestore.ObjectInfo, error) {
	objs, err := p.store.ListObjects(ctx, p.bucket, filestore.ListOptions{
		Prefix: p.prefix + "/",
		Limit:  p.scanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := objs[:0]
	for _, o := range objs {
		if strings.HasSuffix(o.Key, ".json") {
			reports = append(reports, o)
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].LastModified.After(reports[j].LastModified)
	})

	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// RunID extracts the run ID from a report object key.
func RunID(key string) string {
	return strings.TrimSuffix(path.Base(key), ".json")
}
