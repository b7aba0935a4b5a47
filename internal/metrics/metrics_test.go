package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDecisionGateDecline(t *testing.T) {
	before := testutil.ToFloat64(GateDeclinesTotal.WithLabelValues("income"))
	lenderBefore := testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("All Lenders", BucketDeclined))

	RecordDecision("declined", "income", nil, nil, []string{"All Lenders"})

	assert.Equal(t, before+1, testutil.ToFloat64(GateDeclinesTotal.WithLabelValues("income")))
	assert.Equal(t, lenderBefore, testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("All Lenders", BucketDeclined)),
		"gate declines carry no lender outcomes")
}

func TestRecordDecisionLenderBuckets(t *testing.T) {
	approved := testutil.ToFloat64(AssessmentsTotal.WithLabelValues("approved"))
	gsb := testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("Great Southern Bank", BucketApproved))
	latrobe := testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("LaTrobe Financial", BucketConditional))
	suncorp := testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("Suncorp Bank", BucketDeclined))

	RecordDecision("approved", "",
		[]string{"Great Southern Bank"}, []string{"LaTrobe Financial"}, []string{"Suncorp Bank"})

	assert.Equal(t, approved+1, testutil.ToFloat64(AssessmentsTotal.WithLabelValues("approved")))
	assert.Equal(t, gsb+1, testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("Great Southern Bank", BucketApproved)))
	assert.Equal(t, latrobe+1, testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("LaTrobe Financial", BucketConditional)))
	assert.Equal(t, suncorp+1, testutil.ToFloat64(LenderMatchesTotal.WithLabelValues("Suncorp Bank", BucketDeclined)))
}
