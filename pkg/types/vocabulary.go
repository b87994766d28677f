// Package types defines the EvoQL vocabulary (result types, selector fields,
// setter actions, comparison modifiers) and the diagnostic types shared by
// the tokenizer, parser and services.
//
// Every vocabulary lookup is case-insensitive and never fails: names that
// are not part of the vocabulary resolve to an explicit unknown sentinel so
// that a lexically valid query still produces a usable tree.
package types

import (
	"golang.org/x/text/cases"
)

// fold normalizes a vocabulary name for lookup. A Caser is stateful, so a
// fresh one is used per call to keep lookups safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// --- Result types ---

// ResultType identifies a record type requested after GET. The numeric
// values are the identifiers of the platform's type catalog.
type ResultType int

const (
	ResultUnknown                ResultType = -999
	ResultDatasource             ResultType = -8
	ResultHandleMetric           ResultType = -7
	ResultSetDefinition          ResultType = -6
	ResultDatapoint              ResultType = -5
	ResultTheme                  ResultType = -4
	ResultHandle                 ResultType = -3
	ResultKeyword                ResultType = -2
	ResultSuggestedCommunication ResultType = -1
	ResultInstance               ResultType = 0
	ResultContact                ResultType = 1
	ResultPresence               ResultType = 3
	ResultOrganization           ResultType = 7
	ResultGroup                  ResultType = 11
	ResultPerson                 ResultType = 19
	ResultUser                   ResultType = 51
	ResultLocation               ResultType = 65
	ResultActivity               ResultType = 128
	ResultEvent                  ResultType = 384
	ResultMeeting                ResultType = 896
	ResultGathering              ResultType = 1408
	ResultComment                ResultType = 2176
	ResultPath                   ResultType = 4224
	ResultFile                   ResultType = 12416
	ResultFolder                 ResultType = 20608
	ResultCommunication          ResultType = 32896
	ResultEmail                  ResultType = 98432
	ResultPhoneCall              ResultType = 163968
	ResultMessage                ResultType = 295040
	ResultMention                ResultType = 557184
	ResultSocialMention          ResultType = 1605760
	ResultTweet                  ResultType = 2654336
	ResultWorkItem               ResultType = 4194432
	ResultTask                   ResultType = 12583040
	ResultTicket                 ResultType = 20971648
	ResultTag                    ResultType = 33554432
	ResultSetting                ResultType = 67108864
)

var resultTypeNames = map[ResultType]string{
	ResultUnknown:                "Unknown",
	ResultDatasource:             "Datasource",
	ResultHandleMetric:           "HandleMetric",
	ResultSetDefinition:          "SetDefinition",
	ResultDatapoint:              "Datapoint",
	ResultTheme:                  "Theme",
	ResultHandle:                 "Handle",
	ResultKeyword:                "Keyword",
	ResultSuggestedCommunication: "SuggestedCommunication",
	ResultInstance:               "Instance",
	ResultContact:                "Contact",
	ResultPresence:               "Presence",
	ResultOrganization:           "Organization",
	ResultGroup:                  "Group",
	ResultPerson:                 "Person",
	ResultUser:                   "User",
	ResultLocation:               "Location",
	ResultActivity:               "Activity",
	ResultEvent:                  "Event",
	ResultMeeting:                "Meeting",
	ResultGathering:              "Gathering",
	ResultComment:                "Comment",
	ResultPath:                   "Path",
	ResultFile:                   "File",
	ResultFolder:                 "Folder",
	ResultCommunication:          "Communication",
	ResultEmail:                  "Email",
	ResultPhoneCall:              "PhoneCall",
	ResultMessage:                "Message",
	ResultMention:                "Mention",
	ResultSocialMention:          "SocialMention",
	ResultTweet:                  "Tweet",
	ResultWorkItem:               "WorkItem",
	ResultTask:                   "Task",
	ResultTicket:                 "Ticket",
	ResultTag:                    "Tag",
	ResultSetting:                "Setting",
}

var resultTypesByName = invert(resultTypeNames, ResultUnknown)

// String returns the catalog name of the result type.
func (t ResultType) String() string {
	if s, ok := resultTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// LookupResultType resolves a result type name such as "mention".
func LookupResultType(name string) ResultType {
	if t, ok := resultTypesByName[fold(name)]; ok {
		return t
	}
	return ResultUnknown
}

// --- Selector fields ---

// SelectorField identifies the record field a selector condition filters on.
type SelectorField int

const (
	// FieldAny matches any field; unrecognized selector names resolve to it.
	FieldAny SelectorField = iota
	FieldType
	FieldName
	FieldFromDate
	FieldToDate
	FieldDate
	FieldFrom
	FieldTo
	FieldAnyDirection
	FieldTag
	FieldFor
	FieldSentiment
	FieldSource
	FieldAuthor
	FieldKeyword
	FieldInitiator
	FieldTarget
	FieldReplyTo
	FieldTagCount
	FieldChildCount
	FieldDataSource
	FieldDescription
	FieldParent
	FieldTheme
	FieldHour
	FieldMinute
	FieldMonth
	FieldYear
	FieldDay
	FieldDataset
	FieldImportance
	FieldCreated
	FieldIsComment
	FieldInfluence
	FieldFollowers
	FieldKloutScore
	FieldInstanceType
	FieldIgnoreDescription
	FieldID
	FieldDomain
)

var selectorFieldNames = map[SelectorField]string{
	FieldAny:               "AnyField",
	FieldType:              "Type",
	FieldName:              "Name",
	FieldFromDate:          "FromDate",
	FieldToDate:            "ToDate",
	FieldDate:              "Date",
	FieldFrom:              "From",
	FieldTo:                "To",
	FieldAnyDirection:      "AnyDirection",
	FieldTag:               "Tag",
	FieldFor:               "For",
	FieldSentiment:         "Sentiment",
	FieldSource:            "Source",
	FieldAuthor:            "Author",
	FieldKeyword:           "Keyword",
	FieldInitiator:         "Initiator",
	FieldTarget:            "Target",
	FieldReplyTo:           "ReplyTo",
	FieldTagCount:          "TagCount",
	FieldChildCount:        "ChildCount",
	FieldDataSource:        "DataSource",
	FieldDescription:       "Description",
	FieldParent:            "Parent",
	FieldTheme:             "Theme",
	FieldHour:              "Hour",
	FieldMinute:            "Minute",
	FieldMonth:             "Month",
	FieldYear:              "Year",
	FieldDay:               "Day",
	FieldDataset:           "Dataset",
	FieldImportance:        "Importance",
	FieldCreated:           "Created",
	FieldIsComment:         "IsComment",
	FieldInfluence:         "Influence",
	FieldFollowers:         "Followers",
	FieldKloutScore:        "KloutScore",
	FieldInstanceType:      "InstanceType",
	FieldIgnoreDescription: "IgnoreDescription",
	FieldID:                "Id",
	FieldDomain:            "Domain",
}

// selector names that differ from the field's canonical name
var selectorAliases = map[string]SelectorField{
	"involves":     FieldAnyDirection,
	"commentcount": FieldChildCount,
}

var selectorFieldsByName = func() map[string]SelectorField {
	m := invert(selectorFieldNames, FieldAny)
	for alias, f := range selectorAliases {
		m[alias] = f
	}
	// ChildCount is only addressable through its alias
	delete(m, fold("ChildCount"))
	return m
}()

// String returns the canonical name of the field.
func (f SelectorField) String() string {
	if s, ok := selectorFieldNames[f]; ok {
		return s
	}
	return "AnyField"
}

// LookupSelectorField resolves a selector name such as "tag" or "FROMDATE".
// Unknown names resolve to FieldAny.
func LookupSelectorField(name string) SelectorField {
	if f, ok := selectorFieldsByName[fold(name)]; ok {
		return f
	}
	return FieldAny
}

// --- Setter actions ---

// SetterAction identifies the mutation performed by one SET action.
type SetterAction int

const (
	SetterUnknown SetterAction = iota
	SetterTag
	SetterSentiment
	SetterDelete
	SetterInfluence
)

var setterActionNames = map[SetterAction]string{
	SetterUnknown:   "Unknown",
	SetterTag:       "Tag",
	SetterSentiment: "Sentiment",
	SetterDelete:    "Delete",
	SetterInfluence: "Influence",
}

var setterActionsByName = invert(setterActionNames, SetterUnknown)

// String returns the canonical name of the action.
func (a SetterAction) String() string {
	if s, ok := setterActionNames[a]; ok {
		return s
	}
	return "Unknown"
}

// LookupSetterAction resolves a setter name such as "TAG". Unknown names
// resolve to SetterUnknown.
func LookupSetterAction(name string) SetterAction {
	if a, ok := setterActionsByName[fold(name)]; ok {
		return a
	}
	return SetterUnknown
}

// --- Modifiers ---

// Modifier is the comparison attached to a selector. The query language
// produces Equals, LessThan and GreaterThan; the remaining members belong to
// the evaluator's operator catalog.
type Modifier int

const (
	ModifierUnknown Modifier = iota
	ModifierEquals
	ModifierLessThan
	ModifierGreaterThan
	ModifierLike
	ModifierColon
	ModifierContains
	ModifierInRange
	ModifierIn
	ModifierMultiply
	ModifierDivide
	ModifierAdd
	ModifierSubtract
	ModifierTernary
	ModifierBitXor
	ModifierBitOr
	ModifierAnd
	ModifierPlus
	ModifierMinus
	ModifierNullCoalesce
	ModifierOr
	ModifierBitAnd
	ModifierNotEquals
	ModifierModulus
	ModifierLessThanOrEqual
	ModifierGreaterThanOrEqual
)

var modifierNames = map[Modifier]string{
	ModifierUnknown:            "Unknown",
	ModifierEquals:             "Equals",
	ModifierLessThan:           "LessThan",
	ModifierGreaterThan:        "GreaterThan",
	ModifierLike:               "Like",
	ModifierColon:              "Colon",
	ModifierContains:           "Contains",
	ModifierInRange:            "InRange",
	ModifierIn:                 "In",
	ModifierMultiply:           "Multiply",
	ModifierDivide:             "Divide",
	ModifierAdd:                "Add",
	ModifierSubtract:           "Subtract",
	ModifierTernary:            "Ternary",
	ModifierBitXor:             "BitXor",
	ModifierBitOr:              "BitOr",
	ModifierAnd:                "And",
	ModifierPlus:               "Plus",
	ModifierMinus:              "Minus",
	ModifierNullCoalesce:       "NullCoalesce",
	ModifierOr:                 "Or",
	ModifierBitAnd:             "BitAnd",
	ModifierNotEquals:          "NotEquals",
	ModifierModulus:            "Modulus",
	ModifierLessThanOrEqual:    "LessThanOrEqual",
	ModifierGreaterThanOrEqual: "GreaterThanOrEqual",
}

var modifierSymbols = map[string]Modifier{
	":": ModifierEquals,
	"<": ModifierLessThan,
	">": ModifierGreaterThan,
}

var modifiersByName = invert(modifierNames, ModifierUnknown)

// String returns the canonical name of the modifier.
func (m Modifier) String() string {
	if s, ok := modifierNames[m]; ok {
		return s
	}
	return "Unknown"
}

// Symbol returns the query-language spelling of the modifier, or "" for
// modifiers that have no selector syntax.
func (m Modifier) Symbol() string {
	switch m {
	case ModifierEquals:
		return ":"
	case ModifierLessThan:
		return "<"
	case ModifierGreaterThan:
		return ">"
	}
	return ""
}

// LookupModifier resolves a selector separator (":", "<", ">") or a
// modifier name such as "NotEquals".
func LookupModifier(s string) Modifier {
	if m, ok := modifierSymbols[s]; ok {
		return m
	}
	if m, ok := modifiersByName[fold(s)]; ok {
		return m
	}
	return ModifierUnknown
}

// invert builds a folded name -> value table, leaving out the sentinel.
func invert[T comparable](names map[T]string, sentinel T) map[string]T {
	m := make(map[string]T, len(names))
	for v, name := range names {
		if v == sentinel {
			continue
		}
		m[fold(name)] = v
	}
	return m
}
