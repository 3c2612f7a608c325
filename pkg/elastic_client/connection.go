package elastic_client

import (
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"
	"github.com/travigo/tripscheduler/pkg/util"
)

var ErrNotConfigured = errors.New("elasticsearch address not configured")

// Connect returns ErrNotConfigured when TRIPSCHEDULER_ELASTICSEARCH_ADDRESS is unset
func Connect() (*elasticsearch.Client, error) {
	env := util.GetEnvironmentVariables()

	address := env["TRIPSCHEDULER_ELASTICSEARCH_ADDRESS"]
	if address == "" {
		return nil, ErrNotConfigured
	}

	client, err := ConnectWith(elasticsearch.Config{
		Addresses: []string{address},
		Username:  env["TRIPSCHEDULER_ELASTICSEARCH_USERNAME"],
		Password:  env["TRIPSCHEDULER_ELASTICSEARCH_PASSWORD"],
		Transport: transport(env["TRIPSCHEDULER_ELASTICSEARCH_INSECURE"] == "YES"),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Msgf("Elasticsearch client setup for %s", address)

	return client, nil
}

// ConnectWith adds exponential retry on overload responses and checks the cluster answers
func ConnectWith(config elasticsearch.Config) (*elasticsearch.Client, error) {
	retryBackoff := backoff.NewExponentialBackOff()

	config.RetryOnStatus = []int{502, 503, 504, 429}
	config.RetryBackoff = func(i int) time.Duration {
		if i == 1 {
			retryBackoff.Reset()
		}
		return retryBackoff.NextBackOff()
	}
	config.MaxRetries = 5

	es, err := elasticsearch.NewClient(config)
	if err != nil {
		return nil, err
	}

	res, err := es.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.New("elasticsearch info request failed: " + res.Status())
	}

	return es, nil
}

func transport(insecure bool) http.RoundTripper {
	tp := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		tp.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return tp
}
