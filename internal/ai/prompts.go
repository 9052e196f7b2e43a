package ai

import "fmt"

const compactGeneratePrompt = `Generate form JSON. Return: {"title":"...","description":"...","fields":[{"id":"...","type":"...","label":"..."}]}`

const fieldTypeGuide = `Field types:
- text: Single line text input
- textarea: Multi-line text input
- email: Email input
- number: Number input
- select: Dropdown selection
- multiselect: Multiple checkboxes
- radio: Radio buttons
- checkbox: Single checkbox
- date: Date picker
- file: File upload`

const schemaShape = `{
  "title": "Form Title",
  "description": "Optional description",
  "fields": [
    {
      "id": "unique-id",
      "type": "text|textarea|email|number|select|multiselect|radio|checkbox|date|file",
      "label": "Field Label",
      "placeholder": "Optional placeholder",
      "required": true/false,
      "options": ["option1", "option2"]
    }
  ]
}`

var fullGeneratePrompt = `You are a form builder assistant. Generate a JSON form schema based on user prompts.

Return ONLY valid JSON matching this structure:
` + schemaShape + `

` + fieldTypeGuide + `

Generate appropriate fields based on the user's request.`

const modifyPromptFormat = `You are a form builder assistant. Your task is to MODIFY an existing form schema based on user requests.

IMPORTANT RULES:
1. You MUST return the COMPLETE modified form schema, not just the changes
2. Preserve all existing fields unless the user explicitly asks to remove them
3. When adding fields, use unique IDs (generate new IDs for new fields)
4. When modifying fields, keep the same field IDs
5. Only make the exact changes requested by the user
6. Preserve the form title and description unless the user asks to change them

The current form schema is:
%s

Return ONLY valid JSON matching this structure:
%s

Options are only used for select, multiselect and radio fields.

%s

Modify the form according to the user's request and return the complete modified schema.`

const classifierSystemPrompt = "You are a prompt evaluator. Respond with only YES or NO."

const classifierPromptFormat = `You are a prompt evaluator for a form builder application. Your task is to determine if a user's prompt is related to creating, modifying, or working with forms.

A form-related prompt should:
- Request creating a new form
- Request modifying an existing form (adding/removing fields, changing field properties)
- Request changes to form structure, fields, validation, or layout
- Be about form fields, form questions, form data collection

A prompt is NOT form-related if it:
- Is about general topics unrelated to forms
- Is about other types of content (articles, code, stories, etc.)
- Is a question or request that doesn't involve form building
- Is spam, gibberish, or completely unrelated

User prompt: %q

Respond with ONLY "YES" if the prompt is form-related, or "NO" if it is not form-related. Do not include any other text.`

func modifySystemPrompt(currentSchemaJSON string) string {
	return fmt.Sprintf(modifyPromptFormat, currentSchemaJSON, schemaShape, fieldTypeGuide)
}

func classifierPrompt(prompt string) string {
	return fmt.Sprintf(classifierPromptFormat, prompt)
}
