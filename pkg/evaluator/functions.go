package evaluator

import (
	"math"
	"sync"
	"unicode"

	"github.com/sandrolain/goscheme/pkg/numeric"
)

var (
	builtinFunctions     map[string]*Primitive
	builtinFunctionsOnce sync.Once
)

// Special forms referenced by the expansions of other forms. They are
// spliced into generated code as values, so user rebinding of the names
// does not affect them.
var (
	quoteForm, lambdaForm, setForm, ifForm, beginForm *Primitive
	letForm, letStarForm                               *Primitive
	forcePrimitive, valuesPrimitive                    *Primitive
)

func init() {
	initBuiltinFunctions()
	quoteForm = builtinFunctions["quote"]
	lambdaForm = builtinFunctions["lambda"]
	setForm = builtinFunctions["set!"]
	ifForm = builtinFunctions["if"]
	beginForm = builtinFunctions["begin"]
	letForm = builtinFunctions["let"]
	letStarForm = builtinFunctions["let*"]
	forcePrimitive = builtinFunctions["force"]
	valuesPrimitive = builtinFunctions["values"]
}

func fn(name string, minArgs, maxArgs int, impl FunctionImpl) *Primitive {
	return &Primitive{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Impl: impl}
}

func control(name string, minArgs, maxArgs int, impl ControlImpl) *Primitive {
	return &Primitive{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Control: impl}
}

func syntax(name string, minArgs, maxArgs int, impl ControlImpl) *Primitive {
	return &Primitive{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Syntax: true, Control: impl}
}

func cmpEq(c int) bool { return c == 0 }
func cmpLt(c int) bool { return c < 0 }
func cmpGt(c int) bool { return c > 0 }
func cmpLe(c int) bool { return c <= 0 }
func cmpGe(c int) bool { return c >= 0 }

// initBuiltinFunctions initializes the builtin registry.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		list := []*Primitive{
			// Special forms
			syntax("quote", 1, 1, synQuote),
			syntax("quasiquote", 1, 1, synQuasiquote),
			syntax("lambda", 2, -1, synLambda),
			syntax("define", 1, -1, synDefine),
			syntax("set!", 2, 2, synSet),
			syntax("if", 2, 3, synIf),
			syntax("when", 2, -1, synWhen),
			syntax("unless", 2, -1, synUnless),
			syntax("and", 0, -1, synAnd),
			syntax("or", 0, -1, synOr),
			syntax("cond", 0, -1, synCond),
			syntax("case", 1, -1, synCase),
			syntax("begin", 0, -1, synBegin),
			syntax("let", 2, -1, synLet),
			syntax("let*", 2, -1, synLetStar),
			syntax("letrec", 2, -1, synLetrec),
			syntax("letrec*", 2, -1, synLetrec),
			syntax("do", 2, -1, synDo),
			syntax("delay", 1, 1, synDelay),
			syntax("delay-force", 1, 1, synDelayForce),

			// Numbers
			fn("+", 0, -1, arith(numeric.OpAdd)),
			fn("-", 1, -1, arith(numeric.OpSub)),
			fn("*", 0, -1, arith(numeric.OpMul)),
			fn("/", 1, -1, arith(numeric.OpDiv)),
			fn("=", 1, -1, compare(numeric.CmpEq)),
			fn("<", 1, -1, compare(numeric.CmpLt)),
			fn(">", 1, -1, compare(numeric.CmpGt)),
			fn("<=", 1, -1, compare(numeric.CmpLe)),
			fn(">=", 1, -1, compare(numeric.CmpGe)),
			fn("max", 1, -1, extremum(true)),
			fn("min", 1, -1, extremum(false)),
			fn("quotient", 2, 2, integerDivide(numeric.DivQuotient)),
			fn("remainder", 2, 2, integerDivide(numeric.DivRemainder)),
			fn("modulo", 2, 2, integerDivide(numeric.DivModulo)),
			fn("truncate-quotient", 2, 2, integerDivide(numeric.DivQuotient)),
			fn("truncate-remainder", 2, 2, integerDivide(numeric.DivRemainder)),
			fn("floor-remainder", 2, 2, integerDivide(numeric.DivModulo)),
			fn("gcd", 0, -1, fnGcd),
			fn("lcm", 0, -1, fnLcm),
			fn("abs", 1, 1, unary(numeric.Abs)),
			fn("magnitude", 1, 1, unary(numeric.Abs)),
			fn("floor", 1, 1, rounding(numeric.RoundFloor)),
			fn("ceiling", 1, 1, rounding(numeric.RoundCeiling)),
			fn("truncate", 1, 1, rounding(numeric.RoundTruncate)),
			fn("round", 1, 1, rounding(numeric.RoundNearest)),
			fn("numerator", 1, 1, unary(numeric.Numerator)),
			fn("denominator", 1, 1, unary(numeric.Denominator)),
			fn("expt", 2, 2, fnExpt),
			fn("sqrt", 1, 1, unary(numeric.Sqrt)),
			control("exact-integer-sqrt", 1, 1, fnExactIntegerSqrt),
			fn("square", 1, 1, fnSquare),
			fn("exp", 1, 1, transcendental(math.Exp)),
			fn("log", 1, 2, fnLog),
			fn("sin", 1, 1, transcendental(math.Sin)),
			fn("cos", 1, 1, transcendental(math.Cos)),
			fn("tan", 1, 1, transcendental(math.Tan)),
			fn("asin", 1, 1, transcendental(math.Asin)),
			fn("acos", 1, 1, transcendental(math.Acos)),
			fn("atan", 1, 2, fnAtan),
			fn("exact", 1, 1, unary(numeric.ToExact)),
			fn("inexact", 1, 1, unary(numeric.ToInexact)),
			fn("inexact->exact", 1, 1, unary(numeric.ToExact)),
			fn("exact->inexact", 1, 1, unary(numeric.ToInexact)),
			fn("number->string", 1, 2, fnNumberToString),
			fn("string->number", 1, 2, fnStringToNumber),
			fn("number?", 1, 1, fnIsNumber),
			fn("complex?", 1, 1, fnIsNumber),
			fn("real?", 1, 1, fnIsNumber),
			fn("rational?", 1, 1, fnIsRational),
			fn("integer?", 1, 1, fnIsInteger),
			fn("exact?", 1, 1, fnIsExact),
			fn("inexact?", 1, 1, fnIsInexact),
			fn("exact-integer?", 1, 1, fnIsExactInteger),
			fn("nan?", 1, 1, fnIsNaN),
			fn("zero?", 1, 1, signTest(0)),
			fn("positive?", 1, 1, signTest(1)),
			fn("negative?", 1, 1, signTest(-1)),
			fn("odd?", 1, 1, fnIsOdd),
			fn("even?", 1, 1, fnIsEven),

			// Equivalence and booleans
			fn("eq?", 2, 2, equivalence(eq)),
			fn("eqv?", 2, 2, equivalence(eqv)),
			fn("equal?", 2, 2, equivalence(equal)),
			fn("not", 1, 1, fnNot),
			fn("boolean?", 1, 1, typeTest(isBoolean)),
			fn("boolean=?", 2, -1, fnBooleanEq),

			// Pairs and lists
			fn("pair?", 1, 1, typeTest(isPair)),
			fn("null?", 1, 1, typeTest(isNull)),
			fn("list?", 1, 1, fnIsList),
			fn("cons", 2, 2, fnCons),
			fn("car", 1, 1, fnCar),
			fn("cdr", 1, 1, fnCdr),
			fn("set-car!", 2, 2, fnSetCar),
			fn("set-cdr!", 2, 2, fnSetCdr),
			fn("list", 0, -1, fnList),
			fn("make-list", 1, 2, fnMakeList),
			fn("length", 1, 1, fnLength),
			fn("append", 0, -1, fnAppend),
			fn("reverse", 1, 1, fnReverse),
			fn("list-copy", 1, 1, fnListCopy),
			fn("list-tail", 2, 2, fnListTail),
			fn("list-ref", 2, 2, fnListRef),
			fn("list-set!", 3, 3, fnListSet),
			fn("last-pair", 1, 1, fnLastPair),
			fn("memq", 2, 2, member("memq", eq)),
			fn("memv", 2, 2, member("memv", eqv)),
			fn("member", 2, 2, member("member", equal)),
			fn("assq", 2, 2, assoc("assq", eq)),
			fn("assv", 2, 2, assoc("assv", eqv)),
			fn("assoc", 2, 2, assoc("assoc", equal)),
			control("map", 2, -1, fnMap),
			control("for-each", 2, -1, fnForEach),

			// Symbols
			fn("symbol?", 1, 1, typeTest(isSymbol)),
			fn("symbol->string", 1, 1, fnSymbolToString),
			fn("string->symbol", 1, 1, fnStringToSymbol),
			fn("symbol=?", 2, -1, fnSymbolEq),
			fn("gensym", 0, 1, fnGensym),
			fn("generate-uninterned-symbol", 0, 1, fnGensym),

			// Characters
			fn("char?", 1, 1, typeTest(isChar)),
			fn("char->integer", 1, 1, fnCharToInteger),
			fn("integer->char", 1, 1, fnIntegerToChar),
			fn("char=?", 2, -1, charCompare("char=?", false, cmpEq)),
			fn("char<?", 2, -1, charCompare("char<?", false, cmpLt)),
			fn("char>?", 2, -1, charCompare("char>?", false, cmpGt)),
			fn("char<=?", 2, -1, charCompare("char<=?", false, cmpLe)),
			fn("char>=?", 2, -1, charCompare("char>=?", false, cmpGe)),
			fn("char-ci=?", 2, -1, charCompare("char-ci=?", true, cmpEq)),
			fn("char-alphabetic?", 1, 1, charTest("char-alphabetic?", unicode.IsLetter)),
			fn("char-numeric?", 1, 1, charTest("char-numeric?", unicode.IsDigit)),
			fn("char-whitespace?", 1, 1, charTest("char-whitespace?", unicode.IsSpace)),
			fn("char-upper-case?", 1, 1, charTest("char-upper-case?", unicode.IsUpper)),
			fn("char-lower-case?", 1, 1, charTest("char-lower-case?", unicode.IsLower)),
			fn("char-upcase", 1, 1, charMap("char-upcase", unicode.ToUpper)),
			fn("char-downcase", 1, 1, charMap("char-downcase", unicode.ToLower)),
			fn("digit-value", 1, 1, fnDigitValue),

			// Strings
			fn("string?", 1, 1, typeTest(isString)),
			fn("make-string", 1, 2, fnMakeString),
			fn("string", 0, -1, fnString),
			fn("string-length", 1, 1, fnStringLength),
			fn("string-ref", 2, 2, fnStringRef),
			fn("string-set!", 3, 3, fnStringSet),
			fn("string-fill!", 2, 4, fnStringFill),
			fn("substring", 2, 3, fnSubstring),
			fn("string-copy", 1, 3, fnStringCopy),
			fn("string-append", 0, -1, fnStringAppend),
			fn("string->list", 1, 3, fnStringToList),
			fn("list->string", 1, 1, fnListToString),
			fn("string=?", 1, -1, stringCompare("string=?", false, cmpEq)),
			fn("string<?", 1, -1, stringCompare("string<?", false, cmpLt)),
			fn("string>?", 1, -1, stringCompare("string>?", false, cmpGt)),
			fn("string<=?", 1, -1, stringCompare("string<=?", false, cmpLe)),
			fn("string>=?", 1, -1, stringCompare("string>=?", false, cmpGe)),
			fn("string-ci=?", 1, -1, stringCompare("string-ci=?", true, cmpEq)),

			// Vectors
			fn("vector?", 1, 1, typeTest(isVector)),
			fn("vector", 0, -1, fnVector),
			fn("make-vector", 1, 2, fnMakeVector),
			fn("vector-length", 1, 1, fnVectorLength),
			fn("vector-ref", 2, 2, fnVectorRef),
			fn("vector-set!", 3, 3, fnVectorSet),
			fn("vector-fill!", 2, 4, fnVectorFill),
			fn("vector->list", 1, 3, fnVectorToList),
			fn("list->vector", 1, 1, fnListToVector),
			fn("vector-copy", 1, 3, fnVectorCopy),
			fn("vector-append", 0, -1, fnVectorAppend),
			control("vector-map", 2, -1, fnVectorMap),
			control("vector-for-each", 2, -1, fnVectorForEach),

			// Control
			fn("procedure?", 1, 1, typeTest(isProcedure)),
			control("apply", 2, -1, fnApply),
			control("values", 0, -1, fnValues),
			control("call-with-values", 2, 2, fnCallWithValues),
			control("call-with-current-continuation", 1, 1, fnCallCC),
			control("call/cc", 1, 1, fnCallCC),
			control("dynamic-wind", 3, 3, fnDynamicWind),
			control("catch", 3, 3, fnCatch),
			control("synchronized", 2, 2, fnSynchronized),
			fn("raise", 1, 1, fnRaise),
			fn("error", 1, -1, fnError),
			fn("exit", 0, 1, fnExit),
			fn("condition?", 1, 1, fnIsCondition),
			fn("condition-type", 1, 1, fnConditionType),
			fn("condition-message", 1, 1, fnConditionMessage),
			fn("condition-irritants", 1, 1, fnConditionIrritants),
			fn("error-object?", 1, 1, fnIsCondition),
			fn("error-object-message", 1, 1, fnConditionMessage),
			fn("error-object-irritants", 1, 1, fnConditionIrritants),
			control("eval", 1, 2, fnEval),
			fn("interaction-environment", 0, 0, fnInteractionEnvironment),
			control("force", 1, 1, fnForce),
			fn("make-promise", 1, 1, fnMakePromise),
			fn("promise?", 1, 1, fnIsPromise),
			fn("fork", 1, 1, fnFork),

			// Ports
			fn("current-input-port", 0, 0, fnCurrentInputPort),
			fn("current-output-port", 0, 0, fnCurrentOutputPort),
			fn("input-port?", 1, 1, typeTest(isInputPort)),
			fn("output-port?", 1, 1, typeTest(isOutputPort)),
			fn("port?", 1, 1, typeTest(isPort)),
			fn("read", 0, 1, fnRead),
			fn("read-char", 0, 1, fnReadChar),
			fn("peek-char", 0, 1, fnPeekChar),
			fn("read-line", 0, 1, fnReadLine),
			fn("char-ready?", 0, 1, fnCharReady),
			fn("eof-object", 0, 0, fnEOFObject),
			fn("eof-object?", 1, 1, typeTest(isEOF)),
			fn("write", 1, 2, writer("write", true)),
			fn("display", 1, 2, writer("display", false)),
			fn("newline", 0, 1, fnNewline),
			fn("write-char", 1, 2, fnWriteChar),
			fn("write-string", 1, 2, fnWriteString),
			fn("flush-output", 0, 1, fnFlushOutput),
			fn("open-input-string", 1, 1, fnOpenInputString),
			fn("open-output-string", 0, 0, fnOpenOutputString),
			fn("get-output-string", 1, 1, fnGetOutputString),
			fn("open-input-file", 1, 1, fnOpenInputFile),
			fn("open-output-file", 1, 1, fnOpenOutputFile),
			fn("close-input-port", 1, 1, closer("close-input-port")),
			fn("close-output-port", 1, 1, closer("close-output-port")),
			fn("close-port", 1, 1, closer("close-port")),
			control("call-with-input-file", 2, 2, fnCallWithInputFile),
			control("call-with-output-file", 2, 2, fnCallWithOutputFile),
			control("with-input-from-file", 2, 2, fnWithInputFromFile),
			control("with-output-to-file", 2, 2, fnWithOutputToFile),
			control("with-input-from-string", 2, 2, fnWithInputFromString),
			control("with-output-to-string", 1, 1, fnWithOutputToString),
			control("load", 1, 1, fnLoad),
		}
		list = append(list, cxrAccessors()...)
		builtinFunctions = make(map[string]*Primitive, len(list))
		for _, p := range list {
			builtinFunctions[p.Name] = p
		}
	})
}

// GetFunction returns the builtin primitive or special form bound to name
// in every fresh top-level environment.
func GetFunction(name string) (*Primitive, bool) {
	initBuiltinFunctions()
	p, ok := builtinFunctions[name]
	return p, ok
}

// lookupPrimitive returns a builtin that is known to exist.
func lookupPrimitive(name string) *Primitive {
	p, ok := GetFunction(name)
	if !ok {
		panic("evaluator: missing builtin " + name)
	}
	return p
}
