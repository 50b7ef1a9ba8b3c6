package email

// PreviewData holds sample variables for every template, keyed by template.
// Used to render previews and to check templates against their variables.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"DisplayName": "Ada",
	},
	TemplateAccountDeleted: {
		"DisplayName":         "Ada",
		"CalculationsRemoved": "42",
	},
}
