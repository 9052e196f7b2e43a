package forms

import "sort"

var templates = map[string]Schema{
	"contact": {
		Title:       "Contact Form",
		Description: "Get in touch with us",
		Fields: []Field{
			{ID: "name", Type: FieldText, Label: "Name", Placeholder: "Enter your name", Required: true},
			{ID: "email", Type: FieldEmail, Label: "Email", Placeholder: "Enter your email", Required: true},
			{ID: "message", Type: FieldTextarea, Label: "Message", Placeholder: "Enter your message", Required: true},
		},
	},
	"saasOnboarding": {
		Title:       "SaaS Onboarding Form",
		Description: "Welcome! Let's get you set up",
		Fields: []Field{
			{ID: "companyName", Type: FieldText, Label: "Company Name", Placeholder: "Enter your company name", Required: true},
			{ID: "role", Type: FieldSelect, Label: "What's your role?", Options: []string{"Founder", "CTO", "Product Manager", "Developer", "Other"}, Required: true},
			{ID: "teamSize", Type: FieldSelect, Label: "Team Size", Options: []string{"1-10", "11-50", "51-200", "201-500", "500+"}, Required: true},
			{ID: "useCase", Type: FieldTextarea, Label: "What are you planning to use this for?", Placeholder: "Describe your use case"},
		},
	},
	"eventRegistration": {
		Title:       "Event Registration",
		Description: "Register for our upcoming event",
		Fields: []Field{
			{ID: "fullName", Type: FieldText, Label: "Full Name", Placeholder: "Enter your full name", Required: true},
			{ID: "email", Type: FieldEmail, Label: "Email", Placeholder: "Enter your email", Required: true},
			{ID: "phone", Type: FieldText, Label: "Phone Number", Placeholder: "Enter your phone number"},
			{ID: "dietary", Type: FieldSelect, Label: "Dietary Requirements", Options: []string{"None", "Vegetarian", "Vegan", "Gluten-free", "Other"}},
			{ID: "notes", Type: FieldTextarea, Label: "Additional Notes", Placeholder: "Any additional information?"},
		},
	},
	"feedback": {
		Title:       "Feedback Form",
		Description: "We'd love to hear your thoughts",
		Fields: []Field{
			{ID: "rating", Type: FieldRadio, Label: "How would you rate your experience?", Options: []string{"1", "2", "3", "4", "5"}, Required: true},
			{ID: "feedback", Type: FieldTextarea, Label: "Your Feedback", Placeholder: "Tell us what you think", Required: true},
			{ID: "recommend", Type: FieldCheckbox, Label: "Would you recommend us to others?"},
		},
	},
}

// Template returns a copy of the named built-in schema.
func Template(name string) (Schema, bool) {
	s, ok := templates[name]
	if !ok {
		return Schema{}, false
	}
	return s.Clone(), true
}

// TemplateNames lists the built-in template names in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
