package model

import internalmodel "github.com/goliatone/go-survivalform/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeSelect  = internalmodel.FieldTypeSelect
)

const (
	ValidationRuleMin      = internalmodel.ValidationRuleMin
	ValidationRuleRequired = internalmodel.ValidationRuleRequired
)

type ValidationRule = internalmodel.ValidationRule
type Option = internalmodel.Option
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel
