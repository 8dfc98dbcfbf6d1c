package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_SpecificBeforeGeneric(t *testing.T) {
	// "first name" must win over the generic full-name group even though the
	// label also contains "name".
	assert.Equal(t, TypeFirstName, Classify(Signal{Label: "First Name"}))
	assert.Equal(t, TypeLastName, Classify(Signal{Label: "Last Name"}))
	assert.Equal(t, TypeFullName, Classify(Signal{Label: "Your Name"}))
}

func TestClassify_KeywordGroups(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		want SemanticType
	}{
		{"email label", Signal{Label: "Email Address"}, TypeEmail},
		{"email attr", Signal{Name: "applicant_email"}, TypeEmail},
		{"phone", Signal{Label: "Phone Number"}, TypePhone},
		{"linkedin", Signal{Placeholder: "LinkedIn profile URL"}, TypeLinkedIn},
		{"github", Signal{Label: "GitHub"}, TypeGitHub},
		{"portfolio", Signal{Label: "Portfolio"}, TypeWebsite},
		{"city", Signal{Label: "City"}, TypeCity},
		{"zip before city ordering", Signal{Label: "ZIP / Postal Code"}, TypeZip},
		{"resume", Signal{Label: "Upload your resume"}, TypeResumeUpload},
		{"cover letter text", Signal{Label: "Cover Letter"}, TypeCoverLetterText},
		{"cover letter upload", Signal{Label: "Attach cover letter"}, TypeCoverLetterUpload},
		{"sponsorship before authorization", Signal{Label: "Will you require visa sponsorship?"}, TypeVisaSponsorship},
		{"work auth", Signal{Label: "Are you legally authorized to work in the US?"}, TypeWorkAuthorization},
		{"salary", Signal{Label: "Desired salary"}, TypeSalary},
		{"years", Signal{Label: "How many years of experience do you have with Go?"}, TypeYearsExperience},
		{"start date", Signal{Label: "Earliest start date"}, TypeStartDate},
		{"referral", Signal{Label: "How did you hear about this role?"}, TypeReferralSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sig))
		})
	}
}

func TestClassify_AuthorizationBeatsLocationWords(t *testing.T) {
	// Screening questions routinely embed place names; "United States"
	// must not read as a state field, nor "capacity" as a city.
	tests := []struct {
		name string
		sig  Signal
		want SemanticType
	}{
		{"work auth with country name", Signal{Label: "Are you authorized to work in the United States?"}, TypeWorkAuthorization},
		{"sponsorship with country name", Signal{Label: "Will you now or in the future require sponsorship to work in the United States?"}, TypeVisaSponsorship},
		{"capacity is not a city", Signal{Label: "Describe your capacity to travel for this role"}, TypeCustomQuestion},
		{"relocation is not an address", Signal{Label: "Are you willing to relocate for this position?"}, TypeCustomQuestion},
		{"bare state still matches", Signal{Label: "State"}, TypeState},
		{"bare city still matches", Signal{Label: "City"}, TypeCity},
		{"country of citizenship", Signal{Label: "Country of citizenship"}, TypeCountry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sig))
		})
	}
}

func TestClassify_InputTypeOverrides(t *testing.T) {
	assert.Equal(t, TypeEmail, Classify(Signal{InputType: "email"}))
	assert.Equal(t, TypePhone, Classify(Signal{InputType: "tel"}))
	assert.Equal(t, TypeResumeUpload, Classify(Signal{InputType: "file"}))
	assert.Equal(t, TypeCoverLetterUpload, Classify(Signal{InputType: "file", Label: "Cover letter (PDF)"}))
}

func TestClassify_CustomQuestionFallback(t *testing.T) {
	assert.Equal(t, TypeCustomQuestion, Classify(Signal{Label: "Why do you want to join our team?"}))
	assert.Equal(t, TypeCustomQuestion, Classify(Signal{Label: "Describe a project you are proud of"}))
	assert.Equal(t, TypeCustomQuestion, Classify(Signal{Label: "Tell us about your leadership style"}))
}

func TestClassify_Unknown(t *testing.T) {
	assert.Equal(t, TypeUnknown, Classify(Signal{Label: "xyzzy"}))
	assert.Equal(t, TypeUnknown, Classify(Signal{}))
	// Short unlabeled controls never trip the question heuristic.
	assert.Equal(t, TypeUnknown, Classify(Signal{Name: "f42"}))
}

func TestClassify_Deterministic(t *testing.T) {
	sig := Signal{Label: "Are you authorized to work in the United States?"}
	first := Classify(sig)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(sig))
	}
}
