// Package cypher builds Cypher queries from a tree of typed nodes.
//
// Callers compose expressions, patterns and clauses with the constructors
// in this package, then call Build on the root clause. Build walks the
// tree once and returns the query text together with the parameter table.
//
// NAMING:
//
// Variables and parameters never carry names of their own unless the
// caller asks for one. The Environment of a build assigns them on first
// encounter:
// - node and relationship variables: this0, this1, ...
// - plain variables: var<N>, path variables: p<N> (same counter)
// - parameters: param0, param1, ... (separate counter)
//
// A CALL sub-query shares the Environment of the enclosing query, so
// numbering continues inside it instead of restarting at zero.
//
// LAYOUT:
//
// Clauses render one keyword per line. Every CALL block indents its body
// by four spaces relative to the CALL line:
//
//	CALL {
//	    CREATE (this0:`Movie`)
//	    SET
//	        this0.id = $param0
//	    RETURN this0
//	}
//
// ERRORS:
//
// Builder methods never panic and never return errors. A clause records
// the first invalid call and reports it through Err; Build refuses any tree
// that contains such a clause. Trees are immutable once built, so the same
// tree may be compiled any number of times. A builder call copies the
// clauses the receiver already owns, so values derived from one base can
// be combined in the same tree. A nil argument, typed or not, is a
// construction error.
package cypher
