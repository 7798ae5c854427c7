package consts

const (
	// DefaultDBName is the default database name.
	DefaultDBName = "remedy"

	// TableNameExchanges is the default table/collection name for exchanges.
	TableNameExchanges = "exchanges"

	// Column names
	ColConversationID = "conversation_id"
	ColTicketID       = "ticket_id"
	ColQuery          = "query"
	ColAnswer         = "answer"
	ColClassification = "classification"
	ColRelevancyScore = "relevancy_score"
	ColCreatedAt      = "created_at"

	// Neo4j specific
	LabelConversation = "Conversation"
	LabelExchange     = "Exchange"
	RelHasExchange    = "HAS_EXCHANGE"
)
