package compliance

// Requirement is a single control within a framework. Expression is a CEL
// program over application attributes that yields a readiness score in
// [0,1] (bool results map to 0 or 1). The engine derives the compliance
// status from the score after applying the severity modifier.
type Requirement struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Framework   string  `json:"framework"`
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Weight      float64 `json:"weight"`
	Expression  string  `json:"expression"`
}

// Framework is a named set of requirements.
type Framework struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Requirements []Requirement `json:"requirements"`
}

// Severity levels, strongest first.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

// BuiltinFrameworks returns the standard framework catalog. Expressions
// estimate control posture from the security and tech health scores; hard
// attribute mismatches (public-facing with weak security, sensitive data
// without strong controls) pull the score down.
func BuiltinFrameworks() []Framework {
	return []Framework{
		{
			Name:        "SOX",
			Description: "Sarbanes-Oxley Act - Financial Reporting Controls",
			Requirements: []Requirement{
				{
					ID: "SOX-001", Name: "Data Integrity",
					Description: "Ensure accuracy and completeness of financial data",
					Framework:   "SOX", Category: "Data Security", Severity: SeverityCritical, Weight: 1.5,
					Expression: "(security * 0.5 + tech_health * 0.5) / 10.0",
				},
				{
					ID: "SOX-002", Name: "Access Controls",
					Description: "Implement role-based access controls for financial systems",
					Framework:   "SOX", Category: "Access Control", Severity: SeverityCritical, Weight: 1.5,
					Expression: "security / 10.0",
				},
				{
					ID: "SOX-003", Name: "Audit Trail",
					Description: "Maintain comprehensive audit logs for all financial transactions",
					Framework:   "SOX", Category: "Audit Trail", Severity: SeverityCritical, Weight: 1.5,
					Expression: "(tech_health * 0.6 + security * 0.4) / 10.0",
				},
				{
					ID: "SOX-004", Name: "Change Management",
					Description: "Document and approve all system changes",
					Framework:   "SOX", Category: "Change Management", Severity: SeverityHigh, Weight: 1.2,
					Expression: "tech_health / 10.0",
				},
				{
					ID: "SOX-005", Name: "Segregation of Duties",
					Description: "Separate responsibilities to prevent fraud",
					Framework:   "SOX", Category: "Access Control", Severity: SeverityCritical, Weight: 1.5,
					Expression: "system_of_record ? security / 10.0 * 0.9 : security / 10.0",
				},
			},
		},
		{
			Name:        "PCI-DSS",
			Description: "Payment Card Industry Data Security Standard",
			Requirements: []Requirement{
				{
					ID: "PCI-001", Name: "Encryption at Rest",
					Description: "Encrypt stored cardholder data",
					Framework:   "PCI-DSS", Category: "Data Security", Severity: SeverityCritical, Weight: 2.0,
					Expression: "security >= 8.0 ? 1.0 : security / 10.0",
				},
				{
					ID: "PCI-002", Name: "Encryption in Transit",
					Description: "Encrypt transmission of cardholder data across networks",
					Framework:   "PCI-DSS", Category: "Data Security", Severity: SeverityCritical, Weight: 2.0,
					Expression: "public_facing ? security / 10.0 * 0.8 : security / 10.0",
				},
				{
					ID: "PCI-003", Name: "Firewall Configuration",
					Description: "Install and maintain firewall to protect cardholder data",
					Framework:   "PCI-DSS", Category: "Network Security", Severity: SeverityCritical, Weight: 1.8,
					Expression: "(security * 0.7 + tech_health * 0.3) / 10.0",
				},
				{
					ID: "PCI-004", Name: "Vulnerability Management",
					Description: "Regular security scanning and patching",
					Framework:   "PCI-DSS", Category: "Security Maintenance", Severity: SeverityHigh, Weight: 1.5,
					Expression: "tech_health / 10.0",
				},
				{
					ID: "PCI-005", Name: "Multi-Factor Authentication",
					Description: "Implement MFA for system access",
					Framework:   "PCI-DSS", Category: "Access Control", Severity: SeverityCritical, Weight: 1.8,
					Expression: "security / 10.0",
				},
				{
					ID: "PCI-006", Name: "Security Monitoring",
					Description: "Track and monitor all access to network resources",
					Framework:   "PCI-DSS", Category: "Monitoring", Severity: SeverityHigh, Weight: 1.5,
					Expression: "(security * 0.5 + tech_health * 0.5) / 10.0",
				},
			},
		},
		{
			Name:        "HIPAA",
			Description: "Health Insurance Portability and Accountability Act",
			Requirements: []Requirement{
				{
					ID: "HIPAA-001", Name: "PHI Encryption",
					Description: "Encrypt Protected Health Information at rest and in transit",
					Framework:   "HIPAA", Category: "Data Security", Severity: SeverityCritical, Weight: 2.0,
					Expression: "data_sensitivity == 'confidential' || data_sensitivity == 'restricted' ? security / 10.0 * 0.85 : security / 10.0",
				},
				{
					ID: "HIPAA-002", Name: "Access Controls",
					Description: "Implement unique user identification and authentication",
					Framework:   "HIPAA", Category: "Access Control", Severity: SeverityCritical, Weight: 1.8,
					Expression: "security / 10.0",
				},
				{
					ID: "HIPAA-003", Name: "Audit Controls",
					Description: "Implement mechanisms to record and examine activity",
					Framework:   "HIPAA", Category: "Audit Trail", Severity: SeverityCritical, Weight: 1.7,
					Expression: "(tech_health * 0.5 + security * 0.5) / 10.0",
				},
				{
					ID: "HIPAA-004", Name: "Data Backup",
					Description: "Establish and implement procedures for data backup",
					Framework:   "HIPAA", Category: "Business Continuity", Severity: SeverityHigh, Weight: 1.5,
					Expression: "tech_health / 10.0",
				},
				{
					ID: "HIPAA-005", Name: "Breach Notification",
					Description: "Procedures for breach detection and notification",
					Framework:   "HIPAA", Category: "Incident Response", Severity: SeverityCritical, Weight: 1.8,
					Expression: "(security * 0.6 + tech_health * 0.4) / 10.0",
				},
				{
					ID: "HIPAA-006", Name: "Minimum Necessary",
					Description: "Limit PHI access to minimum necessary",
					Framework:   "HIPAA", Category: "Access Control", Severity: SeverityHigh, Weight: 1.4,
					Expression: "security / 10.0",
				},
			},
		},
		{
			Name:        "GDPR",
			Description: "General Data Protection Regulation (EU)",
			Requirements: []Requirement{
				{
					ID: "GDPR-001", Name: "Data Encryption",
					Description: "Pseudonymization and encryption of personal data",
					Framework:   "GDPR", Category: "Data Security", Severity: SeverityCritical, Weight: 1.8,
					Expression: "security / 10.0",
				},
				{
					ID: "GDPR-002", Name: "Right to Erasure",
					Description: "Capability to delete personal data upon request",
					Framework:   "GDPR", Category: "Data Rights", Severity: SeverityCritical, Weight: 1.7,
					Expression: "tech_health / 10.0",
				},
				{
					ID: "GDPR-003", Name: "Data Portability",
					Description: "Ability to export data in machine-readable format",
					Framework:   "GDPR", Category: "Data Rights", Severity: SeverityHigh, Weight: 1.4,
					Expression: "tech_health / 10.0",
				},
				{
					ID: "GDPR-004", Name: "Breach Notification",
					Description: "72-hour breach notification requirement",
					Framework:   "GDPR", Category: "Incident Response", Severity: SeverityCritical, Weight: 1.9,
					Expression: "(security * 0.6 + tech_health * 0.4) / 10.0",
				},
				{
					ID: "GDPR-005", Name: "Data Processing Records",
					Description: "Maintain records of processing activities",
					Framework:   "GDPR", Category: "Audit Trail", Severity: SeverityHigh, Weight: 1.5,
					Expression: "(tech_health * 0.6 + security * 0.4) / 10.0",
				},
				{
					ID: "GDPR-006", Name: "Privacy by Design",
					Description: "Data protection integrated into system design",
					Framework:   "GDPR", Category: "System Design", Severity: SeverityHigh, Weight: 1.6,
					Expression: "public_facing ? (security * 0.7 + tech_health * 0.3) / 10.0 * 0.9 : (security * 0.7 + tech_health * 0.3) / 10.0",
				},
				{
					ID: "GDPR-007", Name: "Consent Management",
					Description: "Obtain and manage user consent for data processing",
					Framework:   "GDPR", Category: "Data Rights", Severity: SeverityCritical, Weight: 1.7,
					Expression: "public_facing ? security / 10.0 * 0.85 : security / 10.0",
				},
			},
		},
	}
}
