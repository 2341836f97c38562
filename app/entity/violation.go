package entity

type Violation string

const (
	ViolationMissingEmail    Violation = "MISSING_EMAIL"
	ViolationMissingMobile   Violation = "MISSING_MOBILE"
	ViolationMissingPhone    Violation = "MISSING_PHONE"
	ViolationNonUniqueEmail  Violation = "NON_UNIQUE_EMAIL"
	ViolationNonUniqueMobile Violation = "NON_UNIQUE_MOBILE"
	// ViolationNonUniquePhone is reserved; landline numbers are not indexed.
	ViolationNonUniquePhone Violation = "NON_UNIQUE_PHONE"
)
