package timing

import (
	"testing"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestJobTypeFromTranslatorType(t *testing.T) {
	assert.Equal(t, persistence.JobTypePaid, JobTypeFromTranslatorType("professional"))
	assert.Equal(t, persistence.JobTypeRWS, JobTypeFromTranslatorType("rwstranslator"))
	assert.Equal(t, persistence.JobTypeUnpaid, JobTypeFromTranslatorType("volunteer"))
	assert.Equal(t, persistence.JobTypeUnpaid, JobTypeFromTranslatorType(""))
	assert.Equal(t, persistence.JobTypeUnpaid, JobTypeFromTranslatorType("olia"))
}

func TestTranslatorTypeFromJobType(t *testing.T) {
	for _, jt := range []persistence.JobType{persistence.JobTypePaid, persistence.JobTypeRWS, persistence.JobTypeUnpaid} {
		assert.Equal(t, jt, JobTypeFromTranslatorType(TranslatorTypeFromJobType(jt)))
	}
}

func TestJobTypeFromConsumerType(t *testing.T) {
	assert.Equal(t, persistence.JobTypeRWS, JobTypeFromConsumerType("rwsconsumer"))
	assert.Equal(t, persistence.JobTypeUnpaid, JobTypeFromConsumerType("ngo"))
	assert.Equal(t, persistence.JobTypePaid, JobTypeFromConsumerType("paid"))
}

func TestTranslatorLevels(t *testing.T) {
	assert.Equal(t, []string{levelLaw}, TranslatorLevels(persistence.CertifiedNLaw))
	assert.Equal(t, []string{levelHealth}, TranslatorLevels(persistence.CertifiedHealth))
	assert.Equal(t, []string{levelLayman, levelReadTranslate}, TranslatorLevels(persistence.CertifiedNormal))
	assert.Len(t, TranslatorLevels(persistence.CertifiedYes), 3)
	assert.Len(t, TranslatorLevels(persistence.CertifiedBoth), 5)
	assert.Len(t, TranslatorLevels(persistence.CertifiedNone), 5)
}
