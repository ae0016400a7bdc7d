package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Performance Analyzer API",
        "description": "Student performance backend serving both the legacy department/semester model and the batch/section academic model",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login and token lifecycle"},
        {"name": "Admin", "description": "Admin records, scope and grading settings"},
        {"name": "Structure", "description": "Batches, sections, subject offerings and exam sessions"},
        {"name": "Teacher", "description": "Mark uploads and class views"},
        {"name": "Student", "description": "Own marks, analysis and summary"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with username and password",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{id}/scope": {
            "get": {
                "tags": ["Admin"],
                "summary": "Admin scope of a user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Scope descriptor or null", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/model-status": {
            "get": {
                "tags": ["Admin"],
                "summary": "Academic model selection and backfill progress",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/subject-offerings": {
            "get": {
                "tags": ["Structure"],
                "summary": "List subject offerings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "teacher_id", "type": "integer"},
                    {"in": "query", "name": "section_id", "type": "integer"},
                    {"in": "query", "name": "academic_year", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teacher/marks": {
            "post": {
                "tags": ["Teacher"],
                "summary": "Upload marks against a legacy subject and exam type",
                "description": "Writes the legacy columns and, when they resolve, the subject offering and exam session links",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UploadMarksRequest"}}
                ],
                "responses": {
                    "201": {"description": "Stored marks row", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not assigned or University marks locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Subject or student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teacher/marks/offerings": {
            "post": {
                "tags": ["Teacher"],
                "summary": "Upload marks against a subject offering and exam session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UploadOfferingMarksRequest"}}
                ],
                "responses": {
                    "201": {"description": "Stored marks row", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/marks": {
            "get": {
                "tags": ["Student"],
                "summary": "Marks grouped by semester",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/summary": {
            "get": {
                "tags": ["Student"],
                "summary": "Natural-language performance summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Summary with source ai or fallback", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UploadMarksRequest": {
            "type": "object",
            "required": ["student_id", "subject_id", "exam_type", "total_marks"],
            "properties": {
                "student_id": {"type": "integer"},
                "subject_id": {"type": "integer"},
                "exam_type": {"type": "string", "example": "Internal-1"},
                "marks_obtained": {"type": "number"},
                "total_marks": {"type": "number"}
            }
        },
        "UploadOfferingMarksRequest": {
            "type": "object",
            "required": ["student_id", "subject_offering_id", "exam_session_id", "max_marks"],
            "properties": {
                "student_id": {"type": "integer"},
                "subject_offering_id": {"type": "integer"},
                "exam_session_id": {"type": "integer"},
                "marks_obtained": {"type": "number"},
                "max_marks": {"type": "number"}
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
