// Package docs registers the OpenAPI document served under /swagger.
//
// The document is produced by swag from the handler annotations; run
// go generate ./cmd/server to refresh it after changing a handler.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [
        {"url": "{{.BasePath}}"}
    ],
    "tags": [
        {"name": "bank-accounts", "description": "Company bank accounts and their statements"},
        {"name": "transactions", "description": "Ledger transactions with maintained running balances"},
        {"name": "orders", "description": "Vehicle purchase, sale, auction and nagare orders"},
        {"name": "reports", "description": "Dashboard and financial summary"},
        {"name": "expenses", "description": "Expenses and expense categories"},
        {"name": "imports", "description": "Reconciliation imports of bank and expense feeds"},
        {"name": "system", "description": "Build information"}
    ],
    "paths": {},
    "components": {
        "securitySchemes": {
            "BearerAuth": {
                "type": "apiKey",
                "in": "header",
                "name": "Authorization",
                "description": "Bearer token authentication. Format: \"Bearer {token}\""
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trade Books API",
	Description:      "Multi-tenant bookkeeping for vehicle trading: bank ledgers, orders, expenses and feed reconciliation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
