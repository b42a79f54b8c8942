// Package design documents the interaction API with the goa DSL. Running
// goa gen against it produces the OpenAPI description served to clients;
// the transport itself lives in internal/server.
package design

import (
	. "goa.design/goa/v3/dsl"
)

var _ = API("sitepulse", func() {
	Title("SitePulse Interaction API")
	Description("Stores website contacts, chat transcripts, feedback and analytics events and reports dashboard statistics")
	Version("1.0.0")
	Server("api", func() {
		Host("localhost", func() {
			URI("http://localhost:8000")
		})
	})
})

// Failure is the body of every unsuccessful response
var Failure = Type("Failure", func() {
	Attribute("success", Boolean, "Always false", func() {
		Example(false)
	})
	Attribute("error", String, "Error code", func() {
		Enum("VALIDATION_ERROR", "NOT_FOUND", "CONFLICT", "STORAGE_ERROR", "INTERNAL_ERROR")
	})
	Attribute("message", String, "Human readable message")
	Attribute("fields", ArrayOf(FieldError), "Per-field validation problems")
	Required("success", "error", "message")
})

var FieldError = Type("FieldError", func() {
	Attribute("field", String, "Offending field")
	Attribute("message", String, "What is wrong with it")
	Required("field", "message")
})

var PageParams = Type("PageParams", func() {
	Attribute("page", Int, "1-based page", func() {
		Default(1)
		Minimum(1)
	})
	Attribute("limit", Int, "Page size", func() {
		Default(20)
		Minimum(1)
		Maximum(100)
	})
})

// Health check
var _ = Service("health", func() {
	Description("Health check service")
	Method("check", func() {
		Result(HealthResult)
		HTTP(func() {
			GET("/health")
			Response(StatusOK)
			Response(StatusServiceUnavailable)
		})
	})
})

var HealthResult = Type("HealthResult", func() {
	Attribute("status", String, "healthy or degraded", func() {
		Enum("healthy", "degraded")
	})
	Attribute("service", String, "Service name")
	Attribute("version", String, "Service version")
	Attribute("database", String, "up or down")
	Required("status", "service", "version", "database")
})

// Contacts
var _ = Service("contact", func() {
	Description("Contact form submissions")
	Error("validation", Failure)
	Error("not_found", Failure)
	Error("storage", Failure)
	HTTP(func() {
		Path("/api/v1/contacts")
		Response("validation", StatusBadRequest)
		Response("not_found", StatusNotFound)
		Response("storage", StatusServiceUnavailable)
	})

	Method("submit", func() {
		Payload(ContactPayload)
		Result(ContactEnvelope)
		HTTP(func() {
			POST("")
			Response(StatusCreated)
		})
	})
	Method("list", func() {
		Payload(func() {
			Extend(PageParams)
			Attribute("status", String, "Filter by status")
			Attribute("projectType", String, "Filter by project type")
			Attribute("search", String, "Substring of name, email, company or message")
		})
		Result(ContactEnvelope)
		HTTP(func() {
			GET("")
			Param("page")
			Param("limit")
			Param("status")
			Param("projectType")
			Param("search")
		})
	})
	Method("get", func() {
		Payload(func() {
			Attribute("id", String, "Contact ID")
			Required("id")
		})
		Result(ContactEnvelope)
		HTTP(func() {
			GET("/{id}")
		})
	})
	Method("update_status", func() {
		Payload(func() {
			Attribute("id", String, "Contact ID")
			Attribute("status", String, "New status", func() {
				Enum("new", "in_progress", "completed", "cancelled")
			})
			Attribute("notes", String, "Internal notes", func() {
				MaxLength(5000)
			})
			Required("id", "status")
		})
		Result(ContactEnvelope)
		HTTP(func() {
			PATCH("/{id}")
		})
	})
	Method("delete", func() {
		Payload(func() {
			Attribute("id", String, "Contact ID")
			Required("id")
		})
		Result(DeletedEnvelope)
		HTTP(func() {
			DELETE("/{id}")
		})
	})
})

var ContactPayload = Type("ContactPayload", func() {
	Attribute("name", String, "Full name", func() {
		MaxLength(100)
		Example("Ada Lovelace")
	})
	Attribute("email", String, "Email address", func() {
		Format(FormatEmail)
		MaxLength(254)
	})
	Attribute("phone", String, "Phone number", func() { MaxLength(50) })
	Attribute("company", String, "Company", func() { MaxLength(100) })
	Attribute("projectType", String, "Kind of project", func() { MaxLength(50) })
	Attribute("budget", String, "Budget bracket", func() { MaxLength(50) })
	Attribute("timeline", String, "Desired timeline", func() { MaxLength(50) })
	Attribute("message", String, "Message", func() { MaxLength(2000) })
	Required("name", "email", "message")
})

var ContactRecord = Type("ContactRecord", func() {
	Extend(ContactPayload)
	Attribute("id", String, "Contact ID", func() { Format(FormatUUID) })
	Attribute("status", String, "Lifecycle status")
	Attribute("notes", String, "Internal notes")
	Attribute("createdAt", String, "Creation time", func() { Format(FormatDateTime) })
	Attribute("updatedAt", String, "Last update time", func() { Format(FormatDateTime) })
	Required("id", "status", "createdAt", "updatedAt")
})

// Conversations and messages
var _ = Service("chat", func() {
	Description("Chat conversations and their transcripts")
	Error("validation", Failure)
	Error("not_found", Failure)
	Error("storage", Failure)
	HTTP(func() {
		Path("/api/v1")
		Response("validation", StatusBadRequest)
		Response("not_found", StatusNotFound)
		Response("storage", StatusServiceUnavailable)
	})

	Method("start", func() {
		Description("Create the conversation for a session or return the existing one")
		Payload(func() {
			Attribute("sessionId", String, "Client session", func() { MaxLength(128) })
			Attribute("userEmail", String, "Visitor email", func() { Format(FormatEmail) })
			Attribute("userName", String, "Visitor name", func() { MaxLength(100) })
			Required("sessionId")
		})
		Result(ConversationEnvelope)
		HTTP(func() {
			POST("/conversations")
		})
	})
	Method("list", func() {
		Payload(func() {
			Extend(PageParams)
			Attribute("userEmail", String, "Filter by visitor email")
			Attribute("dateFrom", String, "First day, YYYY-MM-DD", func() { Format(FormatDate) })
			Attribute("dateTo", String, "Last day, YYYY-MM-DD, inclusive", func() { Format(FormatDate) })
		})
		Result(ConversationEnvelope)
		HTTP(func() {
			GET("/conversations")
			Param("page")
			Param("limit")
			Param("userEmail")
			Param("dateFrom")
			Param("dateTo")
		})
	})
	Method("get", func() {
		Payload(SessionPayload)
		Result(ConversationEnvelope)
		HTTP(func() {
			GET("/conversations/{sessionId}")
		})
	})
	Method("end", func() {
		Payload(SessionPayload)
		Result(ConversationEnvelope)
		HTTP(func() {
			POST("/conversations/{sessionId}/end")
		})
	})
	Method("delete", func() {
		Payload(SessionPayload)
		Result(DeletedEnvelope)
		HTTP(func() {
			DELETE("/conversations/{sessionId}")
		})
	})
	Method("messages", func() {
		Payload(SessionPayload)
		Result(MessageEnvelope)
		HTTP(func() {
			GET("/conversations/{sessionId}/messages")
		})
	})
	Method("post_message", func() {
		Description("Append a message, creating the conversation when needed")
		Payload(func() {
			Attribute("sessionId", String, "Client session", func() { MaxLength(128) })
			Attribute("sender", String, "Author", func() { Enum("user", "bot") })
			Attribute("content", String, "Message text", func() { MaxLength(5000) })
			Attribute("externalMessageId", String, "Client message id")
			Attribute("userEmail", String, "Visitor email")
			Attribute("userName", String, "Visitor name")
			Required("sessionId", "sender", "content")
		})
		Result(MessageEnvelope)
		HTTP(func() {
			POST("/messages")
			Response(StatusCreated)
		})
	})
})

var SessionPayload = Type("SessionPayload", func() {
	Attribute("sessionId", String, "Client session")
	Required("sessionId")
})

var ChatMessage = Type("ChatMessage", func() {
	Attribute("id", String, "Message ID")
	Attribute("conversationId", String, "Owning conversation")
	Attribute("externalMessageId", String, "Client message id")
	Attribute("sender", String, "user or bot")
	Attribute("content", String, "Message text")
	Attribute("timestamp", String, "When it was sent", func() { Format(FormatDateTime) })
	Required("id", "conversationId", "sender", "content", "timestamp")
})

var Conversation = Type("Conversation", func() {
	Attribute("id", String, "Conversation ID")
	Attribute("sessionId", String, "Client session")
	Attribute("userEmail", String, "Visitor email")
	Attribute("userName", String, "Visitor name")
	Attribute("startTime", String, "Start", func() { Format(FormatDateTime) })
	Attribute("endTime", String, "End", func() { Format(FormatDateTime) })
	Attribute("messageCount", Int, "Number of messages")
	Attribute("status", String, "active or completed")
	Attribute("messages", ArrayOf(ChatMessage), "Transcript, oldest first")
	Required("id", "sessionId", "startTime", "messageCount", "status")
})

// Feedback
var _ = Service("feedback", func() {
	Description("Ratings left after a chat")
	Error("validation", Failure)
	Error("not_found", Failure)
	Error("storage", Failure)
	HTTP(func() {
		Path("/api/v1/feedback")
		Response("validation", StatusBadRequest)
		Response("not_found", StatusNotFound)
		Response("storage", StatusServiceUnavailable)
	})

	Method("submit", func() {
		Payload(func() {
			Attribute("sessionId", String, "Session the feedback refers to")
			Attribute("rating", Int, "Rating", func() {
				Minimum(1)
				Maximum(10)
			})
			Attribute("feedbackText", String, "Comment", func() { MaxLength(1000) })
			Attribute("messageId", String, "Rated message")
			Attribute("userEmail", String, "Visitor email")
			Required("rating")
		})
		Result(FeedbackEnvelope)
		HTTP(func() {
			POST("")
			Response(StatusCreated)
		})
	})
	Method("list", func() {
		Payload(func() {
			Extend(PageParams)
			Attribute("rating", Int, "Exact rating")
			Attribute("minRating", Int, "Lowest rating")
			Attribute("maxRating", Int, "Highest rating")
			Attribute("feedbackType", String, "Derived sentiment", func() {
				Enum("positive", "neutral", "negative")
			})
			Attribute("userEmail", String, "Visitor email")
		})
		Result(FeedbackEnvelope)
		HTTP(func() {
			GET("")
			Param("page")
			Param("limit")
			Param("rating")
			Param("minRating")
			Param("maxRating")
			Param("feedbackType")
			Param("userEmail")
		})
	})
	Method("delete", func() {
		Payload(func() {
			Attribute("id", String, "Feedback ID")
			Required("id")
		})
		Result(DeletedEnvelope)
		HTTP(func() {
			DELETE("/{id}")
		})
	})
})

var Feedback = Type("Feedback", func() {
	Attribute("id", String, "Feedback ID")
	Attribute("conversationId", String, "Linked conversation")
	Attribute("messageId", String, "Rated message")
	Attribute("rating", Int, "Rating 1-10")
	Attribute("feedbackText", String, "Comment")
	Attribute("userEmail", String, "Visitor email")
	Attribute("createdAt", String, "Creation time", func() { Format(FormatDateTime) })
	Required("id", "rating", "createdAt")
})

// Analytics
var _ = Service("analytics", func() {
	Description("Interaction events and dashboard statistics")
	Error("validation", Failure)
	Error("storage", Failure)
	HTTP(func() {
		Path("/api/v1")
		Response("validation", StatusBadRequest)
		Response("storage", StatusServiceUnavailable)
	})

	Method("track", func() {
		Payload(func() {
			Attribute("eventType", String, "Event name", func() { MaxLength(100) })
			Attribute("eventData", Any, "Free-form payload")
			Attribute("sessionId", String, "Client session")
			Attribute("userEmail", String, "Visitor email")
			Required("eventType")
		})
		Result(EventEnvelope)
		HTTP(func() {
			POST("/analytics/events")
			Response(StatusCreated)
		})
	})
	Method("list", func() {
		Payload(func() {
			Extend(PageParams)
			Attribute("eventType", String, "Event name")
			Attribute("sessionId", String, "Client session")
			Attribute("userEmail", String, "Visitor email")
		})
		Result(EventEnvelope)
		HTTP(func() {
			GET("/analytics/events")
			Param("page")
			Param("limit")
			Param("eventType")
			Param("sessionId")
			Param("userEmail")
		})
	})
	Method("dashboard", func() {
		Result(DashboardEnvelope)
		HTTP(func() {
			GET("/dashboard/stats")
		})
	})
})

var AnalyticsEvent = Type("AnalyticsEvent", func() {
	Attribute("id", String, "Event ID")
	Attribute("eventType", String, "Event name")
	Attribute("eventData", Any, "Payload object")
	Attribute("sessionId", String, "Client session")
	Attribute("userEmail", String, "Visitor email")
	Attribute("createdAt", String, "Creation time", func() { Format(FormatDateTime) })
	Required("id", "eventType", "eventData", "createdAt")
})

var Bucket = Type("Bucket", func() {
	Attribute("label", String)
	Attribute("count", Int64)
	Attribute("percentage", Float64)
})

var Snapshot = Type("Snapshot", func() {
	Attribute("contacts", MapOf(String, Any), "total, today, by_status, by_project_type, by_budget")
	Attribute("conversations", MapOf(String, Any), "total, today, average_messages, max_messages")
	Attribute("feedback", MapOf(String, Any), "total, average_rating, positive, negative, with_comments, distribution")
	Attribute("users", MapOf(String, Any), "total, new_today")
	Attribute("insights", MapOf(String, Any), "conversion_rate, positive_percentage")
	Attribute("events", ArrayOf(Bucket), "Event counts by type")
	Attribute("generated_at", String, "Snapshot time", func() { Format(FormatDateTime) })
})

func envelope(name string, data any) any {
	return Type(name, func() {
		Attribute("success", Boolean)
		Attribute("data", data)
		Attribute("message", String)
		Attribute("count", Int64, "Total matches before paging")
		Attribute("page", Int)
		Attribute("limit", Int)
		Attribute("totalPages", Int)
		Required("success")
	})
}

var (
	ContactEnvelope      = envelope("ContactEnvelope", ContactRecord)
	ConversationEnvelope = envelope("ConversationEnvelope", Conversation)
	MessageEnvelope      = envelope("MessageEnvelope", ChatMessage)
	FeedbackEnvelope     = envelope("FeedbackEnvelope", Feedback)
	EventEnvelope        = envelope("EventEnvelope", AnalyticsEvent)
	DashboardEnvelope    = envelope("DashboardEnvelope", Snapshot)
	DeletedEnvelope      = envelope("DeletedEnvelope", Type("Deleted", func() {
		Attribute("deleted", Boolean)
		Required("deleted")
	}))
)
