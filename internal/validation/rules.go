package validation

// Rule constrains one payload field. A zero MaxLength means no length limit;
// a nil OneOf means any value.
type Rule struct {
	MaxLength int
	OneOf     []string
}

const (
	idMaxLength   = 64
	textMaxLength = 255
)

// rules is the static table checked before every outgoing call. Fields not
// listed here pass through unchecked.
var rules = map[string]Rule{
	"userID":         {MaxLength: idMaxLength},
	"userID1":        {MaxLength: idMaxLength},
	"userID2":        {MaxLength: idMaxLength},
	"ownerUserID":    {MaxLength: idMaxLength},
	"friendUserID":   {MaxLength: idMaxLength},
	"blackUserID":    {MaxLength: idMaxLength},
	"fromUserID":     {MaxLength: idMaxLength},
	"toUserID":       {MaxLength: idMaxLength},
	"sendID":         {MaxLength: idMaxLength},
	"recvID":         {MaxLength: idMaxLength},
	"inviterUserID":  {MaxLength: idMaxLength},
	"oldOwnerUserID": {MaxLength: idMaxLength},
	"newOwnerUserID": {MaxLength: idMaxLength},
	"groupID":        {MaxLength: idMaxLength},
	"conversationID": {MaxLength: 128},
	"nickname":       {MaxLength: textMaxLength},
	"faceURL":        {MaxLength: textMaxLength},
	"groupName":      {MaxLength: textMaxLength},
	"introduction":   {MaxLength: textMaxLength},
	"notification":   {MaxLength: textMaxLength},
	"gender":         {OneOf: []string{"1", "2"}},
	"groupType":      {OneOf: []string{"0", "1", "2"}},
	"handleResult":   {OneOf: []string{"1", "2"}},
}

// RuleFor returns the rule registered for field.
func RuleFor(field string) (Rule, bool) {
	r, ok := rules[field]
	return r, ok
}
