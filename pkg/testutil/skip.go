// Package testutil provides helpers for gating tests on their environment.
package testutil

import (
	"os"
	"testing"
)

// SkipIfShort skips the test if running in short mode
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// SkipIfCI skips the test if running in CI environment
func SkipIfCI(t *testing.T) {
	t.Helper()
	if os.Getenv("CI") != "" {
		t.Skip("skipping test in CI environment")
	}
}

// MongoURL returns the MongoDB connection string for integration tests,
// skipping the test when none is configured.
func MongoURL(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)
	url := os.Getenv("DOCMAP_TEST_MONGO_URL")
	if url == "" {
		t.Skip("skipping MongoDB integration test (set DOCMAP_TEST_MONGO_URL to run)")
	}
	return url
}

// DynamoEndpoint returns the DynamoDB endpoint for integration tests,
// skipping the test when none is configured. Point it at a local DynamoDB to
// run the store tests without AWS credentials.
func DynamoEndpoint(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)
	endpoint := os.Getenv("DOCMAP_TEST_DYNAMO_ENDPOINT")
	if endpoint == "" {
		t.Skip("skipping DynamoDB integration test (set DOCMAP_TEST_DYNAMO_ENDPOINT to run)")
	}
	return endpoint
}
