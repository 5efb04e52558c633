package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Lesson Scheduler API",
        "description": "Recurring lesson scheduling with conflict detection",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Availability",
            "description": "Weekly availability windows and slot matching"
        },
        {
            "name": "Lessons",
            "description": "Individual lessons"
        },
        {
            "name": "Groups",
            "description": "Group rosters"
        },
        {
            "name": "Group Lessons",
            "description": "Lessons taught to a group"
        },
        {
            "name": "Calendar",
            "description": "Weekly calendars and lesson listings"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Dependency unavailable"
                    }
                }
            }
        },
        "/api/v1/availability": {
            "post": {
                "tags": [
                    "Availability"
                ],
                "summary": "Declare a weekly availability window",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateAvailabilityRequest"
                        }
                    }
                ]
            },
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "List an owner's availability windows",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "ownerKind",
                        "required": true,
                        "type": "string",
                        "description": "STUDENT or TEACHER"
                    },
                    {
                        "in": "query",
                        "name": "ownerId",
                        "required": true,
                        "type": "string",
                        "description": ""
                    },
                    {
                        "in": "query",
                        "name": "dayOfWeek",
                        "required": false,
                        "type": "integer",
                        "description": ""
                    },
                    {
                        "in": "query",
                        "name": "kind",
                        "required": false,
                        "type": "string",
                        "description": ""
                    }
                ]
            }
        },
        "/api/v1/availability/{id}": {
            "delete": {
                "tags": [
                    "Availability"
                ],
                "summary": "Remove an availability window",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/matches": {
            "get": {
                "tags": [
                    "Availability"
                ],
                "summary": "Find overlapping availability between a student and a teacher",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "studentId",
                        "required": true,
                        "type": "string",
                        "description": ""
                    },
                    {
                        "in": "query",
                        "name": "teacherId",
                        "required": true,
                        "type": "string",
                        "description": ""
                    },
                    {
                        "in": "query",
                        "name": "dayOfWeek",
                        "required": false,
                        "type": "integer",
                        "description": ""
                    }
                ]
            }
        },
        "/api/v1/lessons/individual/conflicts": {
            "post": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Check an individual lesson pattern for conflicts",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateIndividualLessonRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/lessons/individual": {
            "post": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Schedule a recurring individual lesson",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict; error.details is a ConflictReport",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateIndividualLessonRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/lessons/individual/{id}": {
            "get": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Get an individual lesson",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/lessons/individual/{id}/cancel": {
            "post": {
                "tags": [
                    "Lessons"
                ],
                "summary": "Cancel an individual lesson or one of its occurrences",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CancelLessonRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/groups": {
            "post": {
                "tags": [
                    "Groups"
                ],
                "summary": "Create a group",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateGroupRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/groups/deactivate-expired": {
            "post": {
                "tags": [
                    "Groups"
                ],
                "summary": "Deactivate groups whose lessons have all ended",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/groups/{id}": {
            "get": {
                "tags": [
                    "Groups"
                ],
                "summary": "Get a group with its active members",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/groups/{id}/members": {
            "post": {
                "tags": [
                    "Groups"
                ],
                "summary": "Add a student to a group",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Member has conflicting lessons",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Group is full",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddGroupMemberRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/groups/{id}/members/{studentId}": {
            "delete": {
                "tags": [
                    "Groups"
                ],
                "summary": "End a student's membership",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "path",
                        "name": "studentId",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/groups/{id}/lessons/conflicts": {
            "post": {
                "tags": [
                    "Group Lessons"
                ],
                "summary": "Check a group lesson pattern against the teacher and every member",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CheckGroupLessonRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/groups/{id}/lessons": {
            "post": {
                "tags": [
                    "Group Lessons"
                ],
                "summary": "Schedule a recurring group lesson",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Scheduling conflict; error.details is a ConflictReport",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateGroupLessonRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/lessons/group/{id}": {
            "get": {
                "tags": [
                    "Group Lessons"
                ],
                "summary": "Get a group lesson",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/lessons/group/{id}/cancel": {
            "post": {
                "tags": [
                    "Group Lessons"
                ],
                "summary": "Cancel a group lesson or one of its occurrences",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CancelLessonRequest"
                        }
                    }
                ]
            }
        },
        "/api/v1/students/{id}/calendar": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Weekly calendar for a student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "query",
                        "name": "weekStart",
                        "required": false,
                        "type": "string",
                        "description": "Any date in the week (YYYY-MM-DD)"
                    }
                ]
            }
        },
        "/api/v1/students/{id}/calendar/export": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Download a student's weekly calendar",
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "query",
                        "name": "weekStart",
                        "required": false,
                        "type": "string",
                        "description": "Any date in the week (YYYY-MM-DD)"
                    },
                    {
                        "in": "query",
                        "name": "format",
                        "required": false,
                        "type": "string",
                        "description": "csv or pdf"
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/api/v1/students/{id}/lessons": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Scheduled lessons of a student",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        },
        "/api/v1/teachers/{id}/calendar": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Weekly calendar for a teacher",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "query",
                        "name": "weekStart",
                        "required": false,
                        "type": "string",
                        "description": "Any date in the week (YYYY-MM-DD)"
                    }
                ]
            }
        },
        "/api/v1/teachers/{id}/calendar/export": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Download a teacher's weekly calendar",
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "in": "query",
                        "name": "weekStart",
                        "required": false,
                        "type": "string",
                        "description": "Any date in the week (YYYY-MM-DD)"
                    },
                    {
                        "in": "query",
                        "name": "format",
                        "required": false,
                        "type": "string",
                        "description": "csv or pdf"
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        },
        "/api/v1/teachers/{id}/lessons": {
            "get": {
                "tags": [
                    "Calendar"
                ],
                "summary": "Scheduled lessons of a teacher",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ]
            }
        }
    },
    "definitions": {
        "CreateAvailabilityRequest": {
            "type": "object",
            "required": [
                "owner_kind",
                "owner_id",
                "day_of_week",
                "start_time",
                "end_time",
                "kind"
            ],
            "properties": {
                "owner_kind": {
                    "type": "string",
                    "enum": [
                        "STUDENT",
                        "TEACHER"
                    ]
                },
                "owner_id": {
                    "type": "string"
                },
                "day_of_week": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 6
                },
                "start_time": {
                    "type": "string",
                    "example": "10:00"
                },
                "end_time": {
                    "type": "string",
                    "example": "11:00"
                },
                "kind": {
                    "type": "string",
                    "enum": [
                        "AVAILABLE",
                        "BUSY",
                        "UNAVAILABLE",
                        "SCHOOL",
                        "BREAK"
                    ]
                },
                "is_recurring": {
                    "type": "boolean"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "CreateIndividualLessonRequest": {
            "type": "object",
            "required": [
                "student_id",
                "teacher_id",
                "course_id",
                "day_of_week",
                "start_time",
                "end_time",
                "effective_from"
            ],
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "teacher_id": {
                    "type": "string"
                },
                "course_id": {
                    "type": "string"
                },
                "classroom_id": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "day_of_week": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 6
                },
                "start_time": {
                    "type": "string",
                    "example": "10:00"
                },
                "end_time": {
                    "type": "string",
                    "example": "11:00"
                },
                "effective_from": {
                    "type": "string",
                    "format": "date"
                },
                "effective_to": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "CreateGroupLessonRequest": {
            "type": "object",
            "required": [
                "teacher_id",
                "course_id",
                "day_of_week",
                "start_time",
                "end_time",
                "effective_from"
            ],
            "properties": {
                "teacher_id": {
                    "type": "string"
                },
                "course_id": {
                    "type": "string"
                },
                "classroom_id": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "day_of_week": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 6
                },
                "start_time": {
                    "type": "string",
                    "example": "10:00"
                },
                "end_time": {
                    "type": "string",
                    "example": "11:00"
                },
                "effective_from": {
                    "type": "string",
                    "format": "date"
                },
                "effective_to": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "CheckGroupLessonRequest": {
            "type": "object",
            "required": [
                "teacher_id",
                "day_of_week",
                "start_time",
                "end_time",
                "effective_from"
            ],
            "properties": {
                "teacher_id": {
                    "type": "string"
                },
                "day_of_week": {
                    "type": "integer",
                    "minimum": 0,
                    "maximum": 6
                },
                "start_time": {
                    "type": "string",
                    "example": "10:00"
                },
                "end_time": {
                    "type": "string",
                    "example": "11:00"
                },
                "effective_from": {
                    "type": "string",
                    "format": "date"
                },
                "effective_to": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "CancelLessonRequest": {
            "type": "object",
            "properties": {
                "cancel_all": {
                    "type": "boolean"
                },
                "cancel_date": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "CreateGroupRequest": {
            "type": "object",
            "required": [
                "name"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "max_capacity": {
                    "type": "integer",
                    "minimum": 1
                }
            }
        },
        "AddGroupMemberRequest": {
            "type": "object",
            "required": [
                "student_id"
            ],
            "properties": {
                "student_id": {
                    "type": "string"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
