package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/akaul/reportdash/internal/model"
)

func TestKeyNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 8, 20, 11, 30, 0, 0, loc)

	local := model.ReportRecord{SuiteName: "smoke", ExecutedAt: at}
	utc := model.ReportRecord{SuiteName: "smoke", ExecutedAt: at.UTC()}

	assert.Equal(t, local.Key(), utc.Key())
}

func TestKeyDistinguishesSuiteAndTime(t *testing.T) {
	at := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)
	base := model.ReportRecord{SuiteName: "smoke", ExecutedAt: at}

	otherSuite := model.ReportRecord{SuiteName: "regression", ExecutedAt: at}
	otherTime := model.ReportRecord{SuiteName: "smoke", ExecutedAt: at.Add(time.Minute)}

	assert.NotEqual(t, base.Key(), otherSuite.Key())
	assert.NotEqual(t, base.Key(), otherTime.Key())
}

func TestConsistent(t *testing.T) {
	rec := model.ReportRecord{Total: 10, Passed: 8, Failed: 2}
	assert.True(t, rec.Consistent())

	rec.Skipped = 1
	assert.False(t, rec.Consistent())
}

func TestDerivePassPercent(t *testing.T) {
	assert.Equal(t, 80.0, model.DerivePassPercent(8, 10))
	assert.Equal(t, 0.0, model.DerivePassPercent(0, 10))
	assert.Equal(t, 100.0, model.DerivePassPercent(10, 10))
	assert.Equal(t, 0.0, model.DerivePassPercent(0, 0))
}
