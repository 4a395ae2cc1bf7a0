// Package contract wraps the OpenAPI document describing the prediction
// service's /Prediction operation. The document is embedded and parsed with
// kin-openapi; it is the single source for the passenger form model (field
// order, labels, options) and for the schema checks applied to every outbound
// request body and inbound response. Keeping both sides on one document keeps
// the client's validation rules aligned with what the service accepts.
package contract
