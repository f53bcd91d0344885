package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TMS Access API",
        "description": "Enrollment admission and time-gated session access",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sessions", "description": "Read-only session catalog"},
        {"name": "Enrollments", "description": "Admission and enrollment lifecycle"},
        {"name": "Access", "description": "Time-gated occurrence access"},
        {"name": "Attendance", "description": "Attendance ledger and roster exports"},
        {"name": "Progress", "description": "Derived completion progress"}
    ],
    "paths": {
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "SESSION_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/occurrences": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List session occurrences",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "learnerId", "in": "query", "type": "string"},
                    {"name": "sessionId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Admit a learner into a session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "SESSION_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "DUPLICATE_ENROLLMENT or CAPACITY_EXCEEDED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "SESSION_NOT_ENROLLABLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment detail with progress snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/cancel": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Cancel an enrollment and release its capacity slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "PRECONDITION_FAILED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/complete": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Mark an enrollment completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "PRECONDITION_FAILED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance history with outcome summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Compute completion progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Record or overwrite an attendance outcome",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "OCCURRENCE_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences/{id}/access": {
            "get": {
                "tags": ["Access"],
                "summary": "Check access to an occurrence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "at", "in": "query", "type": "string", "description": "RFC3339 evaluation time override (debug deployments only)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "NOT_ENROLLED or OUTSIDE_ACCESS_WINDOW", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "OCCURRENCE_NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/occurrences/{id}/roster": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Export the attendance roster as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "learner_id": {"type": "string"},
                "session_id": {"type": "string"}
            },
            "required": ["session_id"]
        },
        "RecordAttendanceRequest": {
            "type": "object",
            "properties": {
                "enrollment_id": {"type": "string"},
                "occurrence_id": {"type": "string"},
                "outcome": {"type": "string", "enum": ["present", "absent", "late"]},
                "recorded_at": {"type": "string"}
            },
            "required": ["enrollment_id", "occurrence_id", "outcome"]
        },
        "Enrollment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "learner_id": {"type": "string"},
                "session_id": {"type": "string"},
                "status": {"type": "string", "enum": ["enrolled", "active", "completed", "cancelled"]},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "certificate_issued": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "AccessGrant": {
            "type": "object",
            "properties": {
                "occurrence_id": {"type": "string"},
                "session_id": {"type": "string"},
                "modality": {"type": "string", "enum": ["in_person", "remote_live", "self_paced"]},
                "window_start": {"type": "string"},
                "window_end": {"type": "string"},
                "checked_at": {"type": "string"},
                "payload": {"type": "object"}
            }
        },
        "ProgressReport": {
            "type": "object",
            "properties": {
                "enrollment_id": {"type": "string"},
                "session_id": {"type": "string"},
                "total_occurrences": {"type": "integer"},
                "attended_occurrences": {"type": "integer"},
                "percentage": {"type": "number"},
                "generated_at": {"type": "string"}
            }
        },
        "AttendanceSummary": {
            "type": "object",
            "properties": {
                "present": {"type": "integer"},
                "late": {"type": "integer"},
                "absent": {"type": "integer"},
                "total": {"type": "integer"},
                "percent": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
