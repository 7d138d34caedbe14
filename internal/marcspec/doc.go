// Package marcspec compiles and evaluates compact MARC path queries such as
// "245ab", "650[#]a" or "600[0]^1a{$a~^Roman}/0-2".
//
// A query is recognised in a fixed order:
//
//	tag         three alphanumeric characters, always required
//	[index]     occurrence selector: n, #, or start-end ('#' = last match)
//	^ab         first group only: both indicators, a digit or '_' then a digit
//	^Pc         indicator constraint, position P (1 or 2) must equal c
//	/range      character range applied to every extracted value
//	$c or c     subfield codes, in the order they are written
//	{key op v}  sub-specification, op is one of  =  !=  ~  !~
//
// A character range may also follow the sub-specifications. Text that cannot
// be recognised is kept in Query.Rest and otherwise ignored.
//
// Parse is record independent and the resulting Query is immutable, so a
// single Query can be evaluated against any number of records, concurrently.
package marcspec
