// Package docs holds the generated OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/predict_score": {
			"post": {
				"description": "Missing fields take their defaults. Numeric strings and booleans are accepted.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"predictions"
				],
				"summary": "Predict the 0-10 academic score",
				"parameters": [
					{
						"description": "Student activity metrics",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/analysis.Fields"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/analysis.ScoreResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"429": {
						"description": "Too Many Requests",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/predict_risk": {
			"post": {
				"description": "Missing fields take their defaults. Numeric strings and booleans are accepted.",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"predictions"
				],
				"summary": "Classify the risk band",
				"parameters": [
					{
						"description": "Student activity metrics",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/analysis.Fields"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/analysis.RiskResult"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"429": {
						"description": "Too Many Requests",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/health": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ops"
				],
				"summary": "Service health",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/models": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ops"
				],
				"summary": "Loaded models and their feature order",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/metrics": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ops"
				],
				"summary": "In-process counters",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		},
		"/cache/stats": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ops"
				],
				"summary": "Prediction cache statistics",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/predictions/recent": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"history"
				],
				"summary": "Most recent predictions, newest first",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"default": 20,
						"description": "page size (1-100)",
						"name": "limit",
						"in": "query"
					}
				]
			}
		},
		"/predictions/stats": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"history"
				],
				"summary": "Prediction counts and averages per endpoint",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/api.ErrorResponse"
						}
					}
				}
			}
		},
		"/ratelimit/status": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"ops"
				],
				"summary": "Remaining request budget for the caller",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": true
						}
					}
				}
			}
		}
	},
	"definitions": {
		"analysis.Fields": {
			"type": "object",
			"properties": {
				"attendance": {
					"type": "number"
				},
				"cgpa": {
					"type": "number"
				},
				"certificates": {
					"type": "number"
				},
				"internships": {
					"type": "number"
				},
				"extra_curricular": {
					"type": "number"
				},
				"library_usage": {
					"type": "number"
				},
				"project_involvement": {
					"type": "number"
				},
				"gpa_sem1": {
					"type": "number"
				},
				"gpa_sem2": {
					"type": "number"
				}
			}
		},
		"analysis.ScoreResult": {
			"type": "object",
			"properties": {
				"score": {
					"type": "number"
				},
				"activity_score": {
					"type": "number"
				},
				"message": {
					"type": "string"
				},
				"risk_level": {
					"type": "string"
				},
				"suggestions": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"analysis.RiskResult": {
			"type": "object",
			"properties": {
				"risk_level": {
					"type": "string"
				},
				"risk_index": {
					"type": "integer"
				},
				"activity_score": {
					"type": "number"
				},
				"suggestions": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"api.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Academic Risk Predictor API",
	Description:      "Scores student activity and classifies academic risk with pre-trained random forests.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
