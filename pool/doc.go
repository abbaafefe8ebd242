// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for the page benchmark. A SlotPool allocates one page per
// concurrent stream slot at session start; each page is exclusively owned by
// its worker or by the single operation it is lent to.
package pool
