package timing

import "github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"

const (
	levelCertified     = "Certified"
	levelLaw           = "Certified with specialisation in law"
	levelHealth        = "Certified with specialisation in health care"
	levelLayman        = "Layman"
	levelReadTranslate = "Read Translation courses"
)

// JobTypeFromTranslatorType maps translator type to the type of bookings the translator sees
func JobTypeFromTranslatorType(translatorType string) persistence.JobType {
	switch translatorType {
	case "professional":
		return persistence.JobTypePaid
	case "rwstranslator":
		return persistence.JobTypeRWS
	default:
		return persistence.JobTypeUnpaid
	}
}

// TranslatorTypeFromJobType maps booking job type to translator type
func TranslatorTypeFromJobType(jt persistence.JobType) string {
	switch jt {
	case persistence.JobTypePaid:
		return "professional"
	case persistence.JobTypeRWS:
		return "rwstranslator"
	default:
		return "volunteer"
	}
}

// JobTypeFromConsumerType maps customer consumer type to booking job type
func JobTypeFromConsumerType(consumerType string) persistence.JobType {
	switch consumerType {
	case "rwsconsumer":
		return persistence.JobTypeRWS
	case "ngo":
		return persistence.JobTypeUnpaid
	default:
		return persistence.JobTypePaid
	}
}

// TranslatorLevels returns translator levels suitable for certification requirement
func TranslatorLevels(c persistence.Certified) []string {
	switch c {
	case persistence.CertifiedYes:
		return []string{levelCertified, levelLaw, levelHealth}
	case persistence.CertifiedBoth:
		return []string{levelCertified, levelLaw, levelHealth, levelLayman, levelReadTranslate}
	case persistence.CertifiedLaw, persistence.CertifiedNLaw:
		return []string{levelLaw}
	case persistence.CertifiedHealth, persistence.CertifiedNHealth:
		return []string{levelHealth}
	case persistence.CertifiedNormal:
		return []string{levelLayman, levelReadTranslate}
	default:
		return []string{levelCertified, levelLaw, levelHealth, levelLayman, levelReadTranslate}
	}
}
