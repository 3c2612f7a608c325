package elastic_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/travigo/tripscheduler/pkg/scheduler"
)

const RunsIndex = "tripscheduler-runs"

// RunIndexer stores one document per generation run, keyed by run id
type RunIndexer struct {
	Client *elasticsearch.Client
	Index  string
}

func NewRunIndexer(client *elasticsearch.Client) *RunIndexer {
	return &RunIndexer{Client: client, Index: RunsIndex}
}

type runDocument struct {
	*scheduler.GenerateSummary
	Timestamp time.Time `json:"@timestamp"`
}

func (r *RunIndexer) RecordRun(ctx context.Context, summary *scheduler.GenerateSummary) error {
	body, err := json.Marshal(runDocument{GenerateSummary: summary, Timestamp: time.Now()})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      r.Index,
		DocumentID: summary.RunID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, r.Client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(res.Body)
		return fmt.Errorf("[%s] indexing run %s: %s", res.Status(), summary.RunID, detail)
	}

	return nil
}
