// places — общий контракт провайдеров поиска мест.
package places

import "errors"

// ErrNotFound — провайдер сообщил, что такого места нет.
var ErrNotFound = errors.New("place not found")
