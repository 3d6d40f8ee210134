package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/internal/telegram"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

// Command kinds in classification priority order.
const (
	cmdStart       = "start"
	cmdHelp        = "help"
	cmdLookup      = "lookup"
	cmdAddCustomer = "add_customer"
	cmdUnknown     = "unknown"
	cmdFallback    = "fallback"
)

// Fixed reply texts. End users only ever see these or a command handler's
// reply; internal errors are never relayed to the chat.
const (
	startReply = "Welcome to the United Copier assistant.\n" +
		"Send /help to see what I can do."

	helpReply = "*Available commands*\n" +
		"/start - introduction\n" +
		"/help - this message\n" +
		"/lookup <phone or name> - find a customer\n\n" +
		"You can also type:\n" +
		"add customer <name> <10-digit phone>\n" +
		"find customer <name>"

	lookupUsageReply = "Usage: lookup <phone or name>\n" +
		"Example: lookup 9876543210"

	addCustomerUsageReply = "Usage: add customer <name> <10-digit phone>\n" +
		"Example: add customer Acme Traders 9876543210"

	unknownCommandReply = "Unknown command. Send /help to see available commands."

	fallbackReply = "Sorry, I didn't understand that. Try:\n" +
		"lookup <phone or name>\n" +
		"add customer <name> <10-digit phone>\n" +
		"/help"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)
var phoneInTextPattern = regexp.MustCompile(`\d{10}`)

// CommandRouter classifies inbound text and produces replies.
type CommandRouter struct {
	customerRepo db.CustomerRepository
	logRepo      db.MessageLogRepository
	api          TelegramAPI
}

// NewCommandRouter creates a new CommandRouter instance
func NewCommandRouter(customerRepo db.CustomerRepository, logRepo db.MessageLogRepository, api TelegramAPI) *CommandRouter {
	return &CommandRouter{
		customerRepo: customerRepo,
		logRepo:      logRepo,
		api:          api,
	}
}

// Dispatch classifies text from an authorized chat, executes the matching
// handler, sends the reply and logs the attempt. Handler failures surface
// as errors after the log entry is written.
func (r *CommandRouter) Dispatch(ctx context.Context, chatID, text string) error {
	kind, arg := classify(text)

	logger.Debug("Command classified",
		zap.String("chat_id", chatID),
		zap.String("kind", kind),
	)

	var reply string
	switch kind {
	case cmdStart:
		reply = startReply
	case cmdHelp:
		reply = helpReply
	case cmdLookup:
		if arg == "" {
			// Usage hint, not an error: the handler is never invoked
			reply = lookupUsageReply
		} else {
			reply = r.handleLookup(arg)
		}
	case cmdAddCustomer:
		reply = r.handleAddCustomer(arg)
	case cmdUnknown:
		reply = unknownCommandReply
	default:
		reply = fallbackReply
	}

	return r.reply(ctx, chatID, reply)
}

// reply sends text to the chat and appends the outgoing log row.
func (r *CommandRouter) reply(ctx context.Context, chatID, text string) error {
	status := models.StatusSent
	sendErr := r.api.SendMessage(ctx, chatID, text)
	if sendErr != nil {
		status = models.StatusFailed
		logger.Warn("Reply send failed",
			zap.String("chat_id", chatID),
			zap.String("event_type", "reply_send_failed"),
			zap.Error(sendErr),
		)
	}

	if logErr := r.logRepo.Append(&models.MessageLogEntry{
		ChatID:    chatID,
		Text:      text,
		Category:  models.CategoryReply,
		Direction: models.DirectionOutgoing,
		Status:    status,
	}); logErr != nil {
		logger.Error("Failed to log reply",
			zap.String("chat_id", chatID),
			zap.Error(logErr),
		)
	}

	return sendErr
}

// handleLookup finds a customer by exact phone or name fragment.
func (r *CommandRouter) handleLookup(arg string) string {
	arg = strings.TrimSpace(arg)

	if phonePattern.MatchString(arg) {
		customer, err := r.customerRepo.GetByPhone(arg)
		if err != nil {
			logger.Error("Customer lookup by phone failed", zap.Error(err))
			return "Customer lookup is unavailable right now, please try again."
		}
		if customer == nil {
			return fmt.Sprintf("No customer found for %s.", arg)
		}
		return formatCustomer(customer)
	}

	customers, err := r.customerRepo.SearchByName(arg, 5)
	if err != nil {
		logger.Error("Customer lookup by name failed", zap.Error(err))
		return "Customer lookup is unavailable right now, please try again."
	}
	if len(customers) == 0 {
		return fmt.Sprintf("No customer found for %q.", arg)
	}

	var b strings.Builder
	for i, customer := range customers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(formatCustomer(customer))
	}
	return b.String()
}

// handleAddCustomer parses "<name> <10-digit phone>" and creates the
// customer. Re-adding an existing phone replies with the existing record
// instead of creating a duplicate.
func (r *CommandRouter) handleAddCustomer(arg string) string {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return addCustomerUsageReply
	}

	phone := phoneInTextPattern.FindString(arg)
	if phone == "" {
		return addCustomerUsageReply
	}

	name := strings.TrimSpace(strings.Replace(arg, phone, "", 1))
	if name == "" {
		return addCustomerUsageReply
	}

	existing, err := r.customerRepo.GetByPhone(phone)
	if err != nil {
		logger.Error("Customer existence check failed", zap.Error(err))
		return "Could not add customer right now, please try again."
	}
	if existing != nil {
		return fmt.Sprintf("Customer already exists:\n%s", formatCustomer(existing))
	}

	customer := models.NewCustomer(name, phone, "")
	if err := r.customerRepo.Create(customer); err != nil {
		logger.Error("Customer creation failed", zap.Error(err))
		return "Could not add customer right now, please try again."
	}

	logger.Info("Customer added via chat",
		zap.String("customer_id", customer.ID),
		zap.String("event_type", "customer_added"),
	)
	return fmt.Sprintf("Customer added:\n%s", formatCustomer(customer))
}

func formatCustomer(c *models.Customer) string {
	location := c.Location
	if location == "" {
		location = FallbackNotSpecified
	}
	return fmt.Sprintf("*%s*\nPhone: %s\nLocation: %s", c.Name, c.Phone, location)
}

// classify determines the command kind and its argument. Slash commands win
// over free-text heuristics.
func classify(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return cmdFallback, ""
	}

	if strings.HasPrefix(trimmed, "/") {
		fields := strings.Fields(trimmed)
		command := strings.ToLower(fields[0])
		// Strip the @botname suffix Telegram appends in groups
		if at := strings.Index(command, "@"); at > 0 {
			command = command[:at]
		}

		switch command {
		case "/start":
			return cmdStart, ""
		case "/help":
			return cmdHelp, ""
		case "/lookup":
			return cmdLookup, strings.TrimSpace(strings.Join(fields[1:], " "))
		}
		return cmdUnknown, ""
	}

	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "add customer"):
		return cmdAddCustomer, strings.TrimSpace(trimmed[len("add customer"):])
	case strings.HasPrefix(lower, "new customer"):
		return cmdAddCustomer, strings.TrimSpace(trimmed[len("new customer"):])
	case strings.HasPrefix(lower, "lookup"):
		return cmdLookup, strings.TrimSpace(trimmed[len("lookup"):])
	case phonePattern.MatchString(trimmed):
		return cmdLookup, trimmed
	case strings.Contains(lower, "find customer"):
		idx := strings.Index(lower, "find customer")
		return cmdLookup, strings.TrimSpace(trimmed[idx+len("find customer"):])
	}

	return cmdFallback, ""
}

// BotCommandList is the fixed command list registered with the provider.
func BotCommandList() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Introduction to the assistant"},
		{Command: "help", Description: "Show available commands"},
		{Command: "lookup", Description: "Find a customer by phone or name"},
	}
}
