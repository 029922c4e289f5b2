package history

// Manager manages input command history with recall navigation.
// A nil store disables persistence; everything else works the same.
type Manager struct {
	lines []string
	limit int
	store *Store

	// Recall cursor. len(lines) means "past the end", i.e. not
	// navigating.
	cursor int
}

// NewManager creates a manager holding at most limit commands. When a
// store is given, the most recent persisted commands seed the list.
func NewManager(limit int, store *Store) (*Manager, error) {
	m := &Manager{
		lines: make([]string, 0, limit),
		limit: limit,
		store: store,
	}

	if store != nil {
		cmds, err := store.Recent(limit)
		if err != nil {
			return nil, err
		}
		m.lines = append(m.lines, cmds...)
	}

	m.cursor = len(m.lines)
	return m, nil
}

// Add appends a command, skipping blanks and duplicates of the last
// entry, and resets the recall cursor.
func (m *Manager) Add(cmd string) {
	defer func() { m.cursor = len(m.lines) }()

	if cmd == "" {
		return
	}
	if len(m.lines) > 0 && m.lines[len(m.lines)-1] == cmd {
		return
	}

	m.lines = append(m.lines, cmd)
	if len(m.lines) > m.limit {
		m.lines = m.lines[len(m.lines)-m.limit:]
	}

	if m.store != nil {
		// Persistence is best-effort; recall works from memory either way
		m.store.Append(cmd)
	}
}

// Prev moves the cursor back and returns that command. The second
// return is false when there is nothing earlier.
func (m *Manager) Prev() (string, bool) {
	if m.cursor == 0 {
		return "", false
	}
	m.cursor--
	return m.lines[m.cursor], true
}

// Next moves the cursor forward and returns that command. Past the
// newest entry it returns "" and false, meaning the input line should
// clear.
func (m *Manager) Next() (string, bool) {
	if m.cursor >= len(m.lines) {
		return "", false
	}
	m.cursor++
	if m.cursor == len(m.lines) {
		return "", false
	}
	return m.lines[m.cursor], true
}

// ResetCursor abandons recall navigation.
func (m *Manager) ResetCursor() {
	m.cursor = len(m.lines)
}

// Get returns a copy of the history, oldest first.
func (m *Manager) Get() []string {
	result := make([]string, len(m.lines))
	copy(result, m.lines)
	return result
}

// Len returns the number of stored commands.
func (m *Manager) Len() int {
	return len(m.lines)
}
