// Package passenger holds the passenger record sent to the survival
// prediction service together with the rules that decide whether a record may
// leave the session: the closed enumerations, the field validator, and the
// form state store that keeps the derived isAlone flag consistent with the
// family size. Wire keys (Pclass, Sex, ..., isAlone) match the prediction
// service's request model, so Input marshals directly into the POST body.
package passenger
