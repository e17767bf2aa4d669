package validation

import "regexp"

// Password strength: one lowercase letter, one uppercase letter and one digit.
var passwordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`\d`),
}

var (
	ProductConditions = []string{"new", "like-new", "good", "fair", "poor"}
	StockLevels       = []string{"in-stock", "low-stock", "out-of-stock"}
	ProductSortOrders = []string{"newest", "price-low", "price-high", "rating"}
	CommentTypes      = []string{"question", "price_inquiry", "interest", "general"}
	AccountStatuses   = []string{"active", "suspended", "banned", "pending"}
	AccountRoles      = []string{"user", "store_owner", "admin", "super_admin"}
	ModerationActions = []string{"approve", "reject"}
)

func passwordField(name string) Field {
	return Field{Name: name, Rules: []Rule{Req(), MinLen(8), Matches(passwordPatterns...)}}
}

var schemas = map[string]Schema{
	"product": {Name: "product", Fields: []Field{
		{Name: "title", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(3), MaxLen(100)}},
		{Name: "description", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(10), MaxLen(1000)}},
		{Name: "price", Rules: []Rule{Req(), IsType(TypeNumber), MinValue(0.01), MaxValue(999999.99)}},
		{Name: "location", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(100)}},
		{Name: "condition", Rules: []Rule{Req(), OneOf(ProductConditions...)}},
		{Name: "categoryId", Sanitizer: StringSanitizer, Rules: []Rule{Req()}},
	}},
	"user": {Name: "user", Fields: []Field{
		{Name: "email", Sanitizer: EmailSanitizer, Rules: []Rule{Req(), IsType(TypeEmail)}},
		passwordField("password"),
		{Name: "firstName", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(30)}},
		{Name: "lastName", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(30)}},
		{Name: "phone", Sanitizer: PhoneSanitizer, Rules: []Rule{IsType(TypePhone)}},
	}},
	"profile": {Name: "profile", Fields: []Field{
		{Name: "firstName", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(30)}},
		{Name: "lastName", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(30)}},
		{Name: "phone", Sanitizer: PhoneSanitizer, Rules: []Rule{IsType(TypePhone)}},
		{Name: "avatar", Rules: []Rule{IsType(TypeURL)}},
		{Name: "bio", Sanitizer: StringSanitizer, Rules: []Rule{MaxLen(500)}},
	}},
	"search": {Name: "search", Fields: []Field{
		{Name: "q", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(100)}},
	}},
	"comment": {Name: "comment", Fields: []Field{
		{Name: "message", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MaxLen(1000)}},
		{Name: "type", Rules: []Rule{OneOf(CommentTypes...)}},
	}},
	"offer": {Name: "offer", Fields: []Field{
		{Name: "amount", Rules: []Rule{Req(), IsType(TypeNumber), MinValue(0.01), MaxValue(999999.99)}},
		{Name: "message", Sanitizer: StringSanitizer, Rules: []Rule{MaxLen(500)}},
	}},
	"store": {Name: "store", Fields: []Field{
		{Name: "name", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MinLen(2), MaxLen(100)}},
		{Name: "description", Sanitizer: StringSanitizer, Rules: []Rule{MaxLen(2000)}},
		{Name: "email", Sanitizer: EmailSanitizer, Rules: []Rule{Req(), IsType(TypeEmail)}},
		{Name: "phone", Sanitizer: PhoneSanitizer, Rules: []Rule{IsType(TypePhone)}},
		{Name: "website", Rules: []Rule{IsType(TypeURL)}},
		{Name: "businessCategory", Sanitizer: StringSanitizer, Rules: []Rule{Req(), MaxLen(100)}},
	}},
	"login": {Name: "login", Fields: []Field{
		{Name: "identifier", Rules: []Rule{Req(), MaxLen(100)}},
		{Name: "password", Rules: []Rule{Req()}},
	}},
	"resetPassword": {Name: "resetPassword", Fields: []Field{
		{Name: "token", Rules: []Rule{Req()}},
		passwordField("newPassword"),
	}},
	"changePassword": {Name: "changePassword", Fields: []Field{
		{Name: "currentPassword", Rules: []Rule{Req()}},
		passwordField("newPassword"),
	}},
	"adminUserUpdate": {Name: "adminUserUpdate", Fields: []Field{
		{Name: "status", Rules: []Rule{OneOf(AccountStatuses...)}},
		{Name: "role", Rules: []Rule{OneOf(AccountRoles...)}},
		{Name: "suspensionReason", Sanitizer: StringSanitizer, Rules: []Rule{MaxLen(500)}},
	}},
	"moderation": {Name: "moderation", Fields: []Field{
		{Name: "action", Rules: []Rule{Req()}},
		{Name: "reason", Sanitizer: StringSanitizer, Rules: []Rule{MaxLen(500)}},
	}},
}

// Lookup returns the registered schema with the given name.
func Lookup(name string) (Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

var productQueryRules = map[string]QueryRule{
	"category":     {Sanitizer: StringSanitizer},
	"minPrice":     {Number: true, Min: Bound(0)},
	"maxPrice":     {Number: true, Min: Bound(0)},
	"location":     {Sanitizer: StringSanitizer},
	"condition":    {Enum: ProductConditions},
	"availability": {Enum: StockLevels},
	"sortBy":       {Enum: ProductSortOrders},
	"page":         {Number: true, Min: Bound(1)},
	"limit":        {Number: true, Min: Bound(1), Max: Bound(100)},
}

var searchQueryRules = map[string]QueryRule{
	"q":     {Sanitizer: StringSanitizer, Required: true, MinLength: 2, MaxLength: 100},
	"page":  {Number: true, Min: Bound(1)},
	"limit": {Number: true, Min: Bound(1), Max: Bound(100)},
}

var listQueryRules = map[string]QueryRule{
	"search": {Sanitizer: StringSanitizer, MaxLength: 100},
	"page":   {Number: true, Min: Bound(1)},
	"limit":  {Number: true, Min: Bound(1), Max: Bound(100)},
}

// ValidateProductQuery checks product listing parameters.
func ValidateProductQuery(params map[string]string) QueryResult {
	return ValidateQuery(params, productQueryRules)
}

// ValidateSearchQuery checks search parameters.
func ValidateSearchQuery(params map[string]string) QueryResult {
	return ValidateQuery(params, searchQueryRules)
}

// ValidateListQuery checks the generic search/page/limit parameters of admin listings.
func ValidateListQuery(params map[string]string) QueryResult {
	return ValidateQuery(params, listQueryRules)
}
