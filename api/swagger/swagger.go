// Package swagger embeds the OpenAPI document served under /swagger.
package swagger

import _ "embed"

// DocPath is the route the document is served on; Swagger UI loads it from there.
const DocPath = "/swagger/user.swagger.json"

//go:embed user.swagger.json
var Doc []byte
