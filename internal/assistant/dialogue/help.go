package dialogue

import "github.com/vaanisewa-core/server/internal/assistant/model"

var helpTexts = map[model.FlowName]string{
	model.FlowSignup:   "You are creating an account. I will ask for your full name, email, and password. Say cancel to stop.",
	model.FlowLogin:    "You are logging in. I will ask for your email and password. Say cancel to stop.",
	model.FlowBrowse:   "You are browsing books. Say next or previous to change pages, search for a title or author, a category like fiction, or item followed by a number to hear details. Say cancel to stop.",
	model.FlowDetails:  "You are hearing book details. Say add to cart, next item, previous item, or back to return to the list. Say cancel to stop.",
	model.FlowCart:     "You are managing your cart. Say view cart, checkout, continue shopping, or remove item. Say cancel to stop.",
	model.FlowCheckout: "You are checking out. I will confirm your order, collect delivery address, and process payment. Say cancel to stop.",
}

const generalHelp = "You can say: sign up to create an account, log in to access your account, or browse books to see available books."

func (m *Manager) help() string {
	if text, ok := helpTexts[m.current]; ok {
		return text
	}
	return generalHelp
}
