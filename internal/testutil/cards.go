package testutil

import "github.com/Veraticus/duecard/internal/model"

// CardBuilder provides a fluent interface for constructing test cards.
type CardBuilder struct {
	card model.Card
}

// NewCard starts a card with the given ID, named after it and due on the 1st.
func NewCard(id string) *CardBuilder {
	return &CardBuilder{card: model.Card{ID: id, Name: id, DueDay: 1}}
}

// Named sets the card name.
func (b *CardBuilder) Named(name string) *CardBuilder {
	b.card.Name = name
	return b
}

// FromBank sets the issuing bank.
func (b *CardBuilder) FromBank(bank string) *CardBuilder {
	b.card.Bank = bank
	return b
}

// DueOn sets the due day.
func (b *CardBuilder) DueOn(day int) *CardBuilder {
	b.card.DueDay = day
	return b
}

// Build returns the card.
func (b *CardBuilder) Build() model.Card {
	return b.card
}
