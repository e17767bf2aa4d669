package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bazzarly/internal/errs"
)

func TestValidateProductScenario(t *testing.T) {
	res, err := Validate("product", map[string]any{
		"title":       "ab",
		"description": "short",
		"price":       -1.0,
		"location":    "",
		"condition":   "mint",
		"categoryId":  "c1",
	})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, map[string]string{
		"title":       "Title must be at least 3 characters long",
		"description": "Description must be at least 10 characters long",
		"price":       "Price must be at least 0.01",
		"location":    "Location is required",
		"condition":   "Condition must be one of: new, like-new, good, fair, poor",
	}, res.Errors)
	assert.Equal(t, "c1", res.Data["categoryId"])
}

func TestValidateDataHasEveryField(t *testing.T) {
	for name, schema := range schemas {
		t.Run(name, func(t *testing.T) {
			res, err := Validate(name, map[string]any{"unrelated": "x"})
			require.NoError(t, err)
			require.Len(t, res.Data, len(schema.Fields))
			for _, f := range schema.Fields {
				assert.Contains(t, res.Data, f.Name)
			}
		})
	}
}

func TestRequiredSkipsRemainingRules(t *testing.T) {
	res, err := Validate("search", map[string]any{"q": "   "})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"q": "Q is required"}, res.Errors)
	assert.Equal(t, "", res.Data["q"])
}

func TestOptionalEmptyFieldIsValid(t *testing.T) {
	res, err := Validate("user", map[string]any{
		"email":     "Jane.Doe@Example.com",
		"password":  "Secret123",
		"firstName": "Jane",
		"lastName":  "Doe",
	})
	require.NoError(t, err)

	assert.True(t, res.IsValid, res.Errors)
	assert.Equal(t, "", res.Data["phone"])
	assert.Equal(t, "jane.doe@example.com", res.Data["email"])
}

func TestUserSchemaMessages(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  string
	}{
		{"bad email", "email", "not-an-email", "Email must be a valid email address"},
		{"short password", "password", "Ab1", "Password must be at least 8 characters long"},
		{"weak password", "password", "alllowercase1", "Password format is invalid"},
		{"password without digit", "password", "NoDigitsHere", "Password format is invalid"},
		{"long first name", "firstName", "Abcdefghijklmnopqrstuvwxyzabcde", "FirstName must be no more than 30 characters long"},
		{"bad phone", "phone", "12", "Phone must be a valid phone number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := map[string]any{
				"email":     "jane@example.com",
				"password":  "Secret123",
				"firstName": "Jane",
				"lastName":  "Doe",
			}
			input[tt.field] = tt.value

			res, err := Validate("user", input)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{tt.field: tt.want}, res.Errors)
		})
	}
}

func TestRuleOrderIsFixed(t *testing.T) {
	schema := Schema{Name: "t", Fields: []Field{
		{Name: "code", Rules: []Rule{OneOf("abc"), MaxLen(2), Req()}},
	}}

	res := schema.Validate(map[string]any{"code": "abcd"})
	assert.Equal(t, "Code must be no more than 2 characters long", res.Errors["code"])
}

func TestPriceTypeCheck(t *testing.T) {
	res, err := Validate("product", map[string]any{
		"title":       "Vintage lamp",
		"description": "Brass lamp in working order",
		"price":       "cheap",
		"location":    "Austin",
		"condition":   "good",
		"categoryId":  "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"price": "Price must be a number"}, res.Errors)
}

func TestValidatePartialChecksOnlyPresentFields(t *testing.T) {
	res, err := ValidatePartial("product", map[string]any{
		"title":       " <i>Lamp</i> ",
		"description": "",
		"price":       -5,
	})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, map[string]string{
		"description": "Description is required",
		"price":       "Price must be at least 0.01",
	}, res.Errors)
	assert.Equal(t, "&lt;i&gt;Lamp&lt;&#x2F;i&gt;", res.Data["title"])
	assert.NotContains(t, res.Data, "location")

	res, err = ValidatePartial("product", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.IsValid)

	_, err = ValidatePartial("nope", nil)
	assert.ErrorIs(t, err, errs.ErrUnknownSchema)
}

func TestUnknownSchema(t *testing.T) {
	_, err := Validate("nope", nil)
	assert.ErrorIs(t, err, errs.ErrUnknownSchema)
}

func TestValidateQuery(t *testing.T) {
	res := ValidateProductQuery(map[string]string{
		"page":      "0",
		"limit":     "500",
		"minPrice":  "abc",
		"condition": "new",
	})

	assert.False(t, res.IsValid)
	assert.Equal(t, map[string]string{
		"page":     "page must be at least 1",
		"limit":    "limit must be no more than 100",
		"minPrice": "minPrice must be a number",
	}, res.Errors)
	assert.Equal(t, "new", res.Params["condition"])
	assert.NotContains(t, res.Params, "sortBy")
}

func TestValidateQueryCoercesNumbers(t *testing.T) {
	res := ValidateProductQuery(map[string]string{"page": "2", "limit": "25", "sortBy": "price-low"})

	require.True(t, res.IsValid, res.Errors)
	assert.Equal(t, 2.0, res.Params["page"])
	assert.Equal(t, 25.0, res.Params["limit"])
	assert.Len(t, res.Params, 3)
}

func TestValidateQueryRejectsBlankNumbers(t *testing.T) {
	res := ValidateProductQuery(map[string]string{"page": "", "limit": "  "})

	assert.Equal(t, map[string]string{
		"page":  "page must be a number",
		"limit": "limit must be a number",
	}, res.Errors)
}

func TestValidateSearchQuery(t *testing.T) {
	assert.Equal(t, "q is required", ValidateSearchQuery(map[string]string{}).Errors["q"])
	assert.Equal(t, "q must be at least 2 characters long", ValidateSearchQuery(map[string]string{"q": "a"}).Errors["q"])
	assert.True(t, ValidateSearchQuery(map[string]string{"q": "lamp"}).IsValid)
}
