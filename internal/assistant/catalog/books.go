package catalog

import "github.com/vaanisewa-core/server/internal/assistant/model"

// DefaultBooks is served when no catalog file is configured.
var DefaultBooks = []model.Book{
	{ID: "1", Name: "Godaan", Author: "Munshi Premchand", Category: "Fiction", Price: 350, Publication: "Saraswati Press", Title: "A farmer's lifelong wish to own a cow."},
	{ID: "2", Name: "Gitanjali", Author: "Rabindranath Tagore", Category: "Literature", Price: 250, Publication: "Macmillan", Title: "Song offerings in verse."},
	{ID: "3", Name: "The Guide", Author: "R K Narayan", Category: "Fiction", Price: 299, Publication: "Indian Thought Publications"},
	{ID: "4", Name: "Wings of Fire", Author: "A P J Abdul Kalam", Category: "Biography", Price: 399, Publication: "Universities Press", Title: "An autobiography."},
	{ID: "5", Name: "The Story of My Experiments with Truth", Author: "Mahatma Gandhi", Category: "Biography", Price: 199, Publication: "Navajivan"},
	{ID: "6", Name: "Malgudi Days", Author: "R K Narayan", Category: "Fiction", Price: 275, Publication: "Indian Thought Publications", Title: "Short stories set in a small town."},
	{ID: "7", Name: "The Discovery of India", Author: "Jawaharlal Nehru", Category: "Education", Price: 550, Publication: "Signet Press"},
	{ID: "8", Name: "Chandrakanta", Author: "Devaki Nandan Khatri", Category: "Fantasy", Price: 320, Title: "A fantasy romance of rival kingdoms."},
	{ID: "9", Name: "The Hound of the Baskervilles", Author: "Arthur Conan Doyle", Category: "Mystery", Price: 180},
	{ID: "10", Name: "Byomkesh Bakshi Stories", Author: "Sharadindu Bandyopadhyay", Category: "Mystery", Price: 420},
	{ID: "11", Name: "The Constitution of India", Author: "P M Bakshi", Category: "Law", Price: 1250, Publication: "LexisNexis"},
	{ID: "12", Name: "Meditations", Author: "Marcus Aurelius", Category: "Philosophy", Price: 220},
	{ID: "13", Name: "Treasure Island", Author: "Robert Louis Stevenson", Category: "Adventure", Price: 150},
	{ID: "14", Name: "The Blue Umbrella", Author: "Ruskin Bond", Category: "Teenage", Price: 120},
}
