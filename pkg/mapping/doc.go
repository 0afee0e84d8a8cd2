// Package mapping defines the declarative associations between secret keys
// and destination property names.
//
// A Mapping copies one secret into one property:
//
//	mapping.Mapping{Key: "db-password", Property: "DB_PASSWORD"}
//
// A ComplexMapping names a secret whose value is a flat JSON object and
// copies selected fields of that object:
//
//	mapping.ComplexMapping{
//	    Key: "db-credentials",
//	    Mappings: []mapping.Mapping{
//	        {Key: "username", Property: "DB_USER"},
//	        {Key: "password", Property: "DB_PASSWORD"},
//	    },
//	}
//
// Mappings are built once from configuration and are read-only afterwards.
package mapping
